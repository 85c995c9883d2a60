// Package notify 把各生产方写入的通知事件整理成统一的展示结构：
// 别名归一化、按类型渲染文案、去重、搜索。
//
// 载荷是松散的 JSON 对象，同一语义字段在不同生产方那里可能叫
// team_name / teamName / team.name。这里任何字段缺失或格式错误都只会
// 退化为占位符，不会返回错误。
package notify

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Placeholder 缺失值的占位符
const Placeholder = "—"

// Type 通知事件类型
type Type string

const (
	TypeBudgetLow         Type = "budget-low"
	TypeBudgetDepleted    Type = "budget-depleted"
	TypeEvaluationDue     Type = "evaluation-due"
	TypeMaterialsConflict Type = "materials-conflict"
	TypeFieldConflict     Type = "field-conflict"
	TypeGenericEvent      Type = "generic-event"
	TypeRepeatedAbsence   Type = "repeated-absence"
	TypeReturnComplete    Type = "return-complete"
	TypeReturnIncomplete  Type = "return-incomplete"
)

// Types 已知事件类型词表
var Types = []Type{
	TypeBudgetLow,
	TypeBudgetDepleted,
	TypeEvaluationDue,
	TypeMaterialsConflict,
	TypeFieldConflict,
	TypeGenericEvent,
	TypeRepeatedAbsence,
	TypeReturnComplete,
	TypeReturnIncomplete,
}

// Known 是否为已知类型
func (t Type) Known() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// Event 存储层取出的原始通知
type Event struct {
	ID        string
	Type      Type
	Payload   map[string]any
	IsRead    bool
	CreatedAt time.Time
}

// Field 可能缺失的文本字段
type Field struct {
	Value string
	Valid bool
}

// String 缺失时返回占位符
func (f Field) String() string {
	if !f.Valid {
		return Placeholder
	}
	return f.Value
}

// MarshalJSON 缺失时输出 null
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Number 可能缺失的数值字段
type Number struct {
	Value float64
	Valid bool
}

// String 整数不带小数位，其余保留两位
func (n Number) String() string {
	if !n.Valid {
		return Placeholder
	}
	return formatNumber(n.Value)
}

// MarshalJSON 缺失时输出 null
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Normalized 从载荷中抽取的规范字段
type Normalized struct {
	TeamID          Field    `json:"team_id"`
	TeamName        Field    `json:"team_name"`
	MemberID        Field    `json:"member_id"`
	MemberName      Field    `json:"member_name"`
	GuardianContact Field    `json:"guardian_contact"`
	ZoneID          Field    `json:"zone_id"`
	ZoneName        Field    `json:"zone_name"`
	MaterialID      Field    `json:"material_id"`
	MaterialName    Field    `json:"material_name"`
	Quantity        Number   `json:"quantity"`
	WindowStart     Field    `json:"window_start"`
	WindowEnd       Field    `json:"window_end"`
	Term            Field    `json:"term"`
	Amount          Number   `json:"amount"`
	Spent           Number   `json:"spent"`
	Remaining       Number   `json:"remaining"`
	Count           Number   `json:"count"`
	Title           Field    `json:"title"`
	Note            Field    `json:"note"`
	Dates           []string `json:"dates,omitempty"`
}

// 规范字段名
const (
	FieldTeamID          = "team_id"
	FieldTeamName        = "team_name"
	FieldMemberID        = "member_id"
	FieldMemberName      = "member_name"
	FieldGuardianContact = "guardian_contact"
	FieldZoneID          = "zone_id"
	FieldZoneName        = "zone_name"
	FieldMaterialID      = "material_id"
	FieldMaterialName    = "material_name"
	FieldQuantity        = "quantity"
	FieldWindowStart     = "window_start"
	FieldWindowEnd       = "window_end"
	FieldTerm            = "term"
	FieldAmount          = "amount"
	FieldSpent           = "spent"
	FieldRemaining       = "remaining"
	FieldCount           = "count"
	FieldTitle           = "title"
	FieldNote            = "note"
	FieldDates           = "dates"
)

// Aliases 规范字段 → 按优先级排列的别名路径（点号进入嵌套对象）。
// 新生产方使用了新键名时只改这里。
var Aliases = map[string][]string{
	FieldTeamID:          {"team_id", "teamId", "team.id", "squad_id", "squadId"},
	FieldTeamName:        {"team_name", "teamName", "team.name", "team", "squad_name", "squadName"},
	FieldMemberID:        {"member_id", "memberId", "member.id", "scout_id", "scoutId"},
	FieldMemberName:      {"member_name", "memberName", "member.name", "member.full_name", "member", "full_name", "fullName"},
	FieldGuardianContact: {"guardian_contact", "guardianContact", "guardian.contact", "guardian.phone", "guardian.email", "guardian_phone", "guardian_email", "parent_contact"},
	FieldZoneID:          {"zone_id", "zoneId", "zone.id", "field_id", "fieldId"},
	FieldZoneName:        {"zone_name", "zoneName", "zone.name", "zone", "field_name", "fieldName"},
	FieldMaterialID:      {"material_id", "materialId", "material.id", "item_id", "itemId"},
	FieldMaterialName:    {"material_name", "materialName", "material.name", "material", "item_name", "itemName"},
	FieldQuantity:        {"quantity", "qty", "missing_quantity", "missingQuantity", "requested_qty"},
	FieldWindowStart:     {"window_start", "windowStart", "start", "start_at", "startAt", "starts_at", "from", "window.start"},
	FieldWindowEnd:       {"window_end", "windowEnd", "end", "end_at", "endAt", "ends_at", "to", "window.end"},
	FieldTerm:            {"term", "term_label", "termLabel", "term.name", "period"},
	FieldAmount:          {"amount", "budget", "budget_amount", "budgetAmount", "total"},
	FieldSpent:           {"spent", "spent_amount", "spentAmount", "used"},
	FieldRemaining:       {"remaining", "remaining_amount", "remainingAmount", "balance"},
	FieldCount:           {"count", "absences", "absence_count", "absenceCount"},
	FieldTitle:           {"title", "event_title", "eventTitle", "event.title", "name"},
	FieldNote:            {"note", "message", "text", "description", "body"},
	FieldDates:           {"dates", "absence_dates", "absenceDates"},
}

// Normalize 抽取规范字段。每个字段取第一个存在且非空的别名值。
func Normalize(payload map[string]any) Normalized {
	return Normalized{
		TeamID:          text(payload, FieldTeamID),
		TeamName:        text(payload, FieldTeamName),
		MemberID:        text(payload, FieldMemberID),
		MemberName:      text(payload, FieldMemberName),
		GuardianContact: text(payload, FieldGuardianContact),
		ZoneID:          text(payload, FieldZoneID),
		ZoneName:        text(payload, FieldZoneName),
		MaterialID:      text(payload, FieldMaterialID),
		MaterialName:    text(payload, FieldMaterialName),
		Quantity:        number(payload, FieldQuantity),
		WindowStart:     text(payload, FieldWindowStart),
		WindowEnd:       text(payload, FieldWindowEnd),
		Term:            text(payload, FieldTerm),
		Amount:          number(payload, FieldAmount),
		Spent:           number(payload, FieldSpent),
		Remaining:       number(payload, FieldRemaining),
		Count:           number(payload, FieldCount),
		Title:           text(payload, FieldTitle),
		Note:            text(payload, FieldNote),
		Dates:           dates(payload, FieldDates),
	}
}

// lookup 按点号路径取值
func lookup(payload map[string]any, path string) (any, bool) {
	var cur any = payload
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out, err := cast.ToStringMapE(m)
		return out, err == nil
	default:
		return nil, false
	}
}

func text(payload map[string]any, field string) Field {
	for _, alias := range Aliases[field] {
		v, ok := lookup(payload, alias)
		if !ok {
			continue
		}
		switch v.(type) {
		case map[string]any, map[any]any, []any:
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return Field{Value: s, Valid: true}
		}
	}
	return Field{}
}

func number(payload map[string]any, field string) Number {
	for _, alias := range Aliases[field] {
		v, ok := lookup(payload, alias)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString {
			if strings.TrimSpace(s) == "" {
				continue
			}
			v = strings.TrimSpace(s)
		}
		if _, isBool := v.(bool); isBool {
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			continue
		}
		return Number{Value: f, Valid: true}
	}
	return Number{}
}

func dates(payload map[string]any, field string) []string {
	for _, alias := range Aliases[field] {
		v, ok := lookup(payload, alias)
		if !ok {
			continue
		}
		raw, err := cast.ToStringSliceE(v)
		if err != nil {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, d := range raw {
			if d = strings.TrimSpace(d); d != "" {
				out = append(out, d)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// SortedDates 返回排序后的副本
func (n Normalized) SortedDates() []string {
	if n.Dates == nil {
		return nil
	}
	out := make([]string, len(n.Dates))
	copy(out, n.Dates)
	sort.Strings(out)
	return out
}

// Team 优先名称，其次 ID
func (n Normalized) Team() Field { return firstValid(n.TeamName, n.TeamID) }

// Member 优先名称，其次 ID
func (n Normalized) Member() Field { return firstValid(n.MemberName, n.MemberID) }

// Material 优先名称，其次 ID
func (n Normalized) Material() Field { return firstValid(n.MaterialName, n.MaterialID) }

// Zone 优先名称，其次 ID
func (n Normalized) Zone() Field { return firstValid(n.ZoneName, n.ZoneID) }

func firstValid(fields ...Field) Field {
	for _, f := range fields {
		if f.Valid {
			return f
		}
	}
	return Field{}
}
