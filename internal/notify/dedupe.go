package notify

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key 去重键。两条原始事件键相同即视为同一次真实发生的事件。
type Key struct {
	Type     Type
	Member   Field
	Team     Field
	Material Field
	Zone     Field
	Start    Field
	End      Field
	Dates    string // 排序后拼接，HasDates 区分 "无日期" 与 "空"
	HasDates bool
}

// KeyOf 计算事件的去重键
func KeyOf(e Event) Key {
	return keyOf(e.Type, Normalize(e.Payload))
}

func keyOf(t Type, n Normalized) Key {
	k := Key{
		Type:     t,
		Member:   firstValid(n.MemberID, n.MemberName),
		Team:     firstValid(n.TeamID, n.TeamName),
		Material: firstValid(n.MaterialID, n.MaterialName),
		Zone:     firstValid(n.ZoneID, n.ZoneName),
		Start:    n.WindowStart,
		End:      n.WindowEnd,
	}
	if n.Dates != nil {
		k.Dates = strings.Join(n.SortedDates(), "\x1f")
		k.HasDates = true
	}
	return k
}

// Dedupe 按去重键保留首次出现的事件，保持原有相对顺序
func Dedupe(events []Event) []Event {
	seen := make(map[Key]struct{}, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		k := KeyOf(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Groups 保留事件 ID → 与其同键的全部事件 ID（含自身，按原顺序）
func Groups(events []Event) map[string][]string {
	first := make(map[Key]string, len(events))
	groups := make(map[string][]string, len(events))
	for _, e := range events {
		k := KeyOf(e)
		id, ok := first[k]
		if !ok {
			first[k] = e.ID
			id = e.ID
		}
		groups[id] = append(groups[id], e.ID)
	}
	return groups
}

// Item 可直接展示的通知
type Item struct {
	ID         string     `json:"id"`
	Type       Type       `json:"type"`
	Text       string     `json:"text"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  string     `json:"created_at"`
	Normalized Normalized `json:"fields"`
}

// Prepare 去重后逐条归一化并渲染
func Prepare(events []Event) []Item {
	kept := Dedupe(events)
	items := make([]Item, 0, len(kept))
	for _, e := range kept {
		n := Normalize(e.Payload)
		items = append(items, Item{
			ID:         e.ID,
			Type:       e.Type,
			Text:       Render(e.Type, n),
			IsRead:     e.IsRead,
			CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Normalized: n,
		})
	}
	return items
}

// UnreadCount 未读数量，调用方需传入去重后的列表
func UnreadCount(items []Item) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

// Matches 大小写无关地匹配文案、类型与主要名称。空查询匹配全部。
func Matches(it Item, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	// Caser 有状态，不能跨 goroutine 共享
	folder := cases.Fold()
	q = folder.String(q)
	haystack := []string{
		it.Text,
		string(it.Type),
		it.Normalized.Team().Value,
		it.Normalized.Member().Value,
		it.Normalized.Material().Value,
		it.Normalized.Zone().Value,
	}
	for _, h := range haystack {
		if h != "" && strings.Contains(folder.String(h), q) {
			return true
		}
	}
	return false
}

// Filter 在去重结果上做搜索与未读过滤
func Filter(items []Item, query string, unreadOnly bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if unreadOnly && it.IsRead {
			continue
		}
		if !Matches(it, query) {
			continue
		}
		out = append(out, it)
	}
	return out
}
