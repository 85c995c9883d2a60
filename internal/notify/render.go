package notify

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// renderer 单个类型的文案规则
type renderer func(n Normalized) string

// renderers 按事件类型查表
var renderers = map[Type]renderer{
	TypeBudgetLow: func(n Normalized) string {
		return fmt.Sprintf("%s 预算不足%s：剩余 %s", n.Team(), termSuffix(n), RemainingBudget(n))
	},
	TypeBudgetDepleted: func(n Normalized) string {
		return fmt.Sprintf("%s 预算已用尽%s：已支出 %s / %s", n.Team(), termSuffix(n), n.Spent, n.Amount)
	},
	TypeEvaluationDue: func(n Normalized) string {
		return fmt.Sprintf("%s 的评估待提交%s", memberWithTeam(n), termSuffix(n))
	},
	TypeMaterialsConflict: func(n Normalized) string {
		s := fmt.Sprintf("物资冲突：%s × %s，%s", n.Material(), n.Quantity, window(n))
		if t := n.Team(); t.Valid {
			s += "，申请小队 " + t.Value
		}
		return s
	},
	TypeFieldConflict: func(n Normalized) string {
		s := fmt.Sprintf("场地冲突：%s，%s", n.Zone(), window(n))
		if t := n.Team(); t.Valid {
			s += "，申请小队 " + t.Value
		}
		return s
	},
	TypeGenericEvent: func(n Normalized) string {
		switch {
		case n.Title.Valid && n.Note.Valid:
			return n.Title.Value + "：" + n.Note.Value
		case n.Title.Valid:
			return n.Title.Value
		default:
			return n.Note.String()
		}
	},
	TypeRepeatedAbsence: func(n Normalized) string {
		count := n.Count
		if !count.Valid && len(n.Dates) > 0 {
			count = Number{Value: float64(len(n.Dates)), Valid: true}
		}
		s := fmt.Sprintf("%s 连续缺勤 %s 次", memberWithTeam(n), count)
		if d := n.SortedDates(); len(d) > 0 {
			s += "：" + strings.Join(d, "、")
		}
		if n.GuardianContact.Valid {
			s += "，监护人 " + n.GuardianContact.Value
		}
		return s
	},
	TypeReturnComplete: func(n Normalized) string {
		return fmt.Sprintf("%s 已完成物资归还：%s", n.Team(), n.Material())
	},
	TypeReturnIncomplete: func(n Normalized) string {
		return fmt.Sprintf("%s 物资归还不完整：%s，缺少 %s", n.Team(), n.Material(), n.Quantity)
	},
}

// Render 生成一行可读文案。未知类型使用原始类型标签加备注。
func Render(t Type, n Normalized) string {
	if r, ok := renderers[t]; ok {
		return r(n)
	}
	label := strings.TrimSpace(string(t))
	if label == "" {
		label = Placeholder
	}
	if n.Note.Valid {
		return label + "：" + n.Note.Value
	}
	return label
}

// RemainingBudget 显式的剩余金额优先；否则为 amount − spent（缺少 spent 视为 0）
func RemainingBudget(n Normalized) Number {
	if n.Remaining.Valid {
		return n.Remaining
	}
	if !n.Amount.Valid {
		return Number{}
	}
	spent := 0.0
	if n.Spent.Valid {
		spent = n.Spent.Value
	}
	return Number{Value: n.Amount.Value - spent, Valid: true}
}

func termSuffix(n Normalized) string {
	if !n.Term.Valid {
		return ""
	}
	return "（" + n.Term.Value + "）"
}

func memberWithTeam(n Normalized) string {
	m := n.Member().String()
	if t := n.Team(); t.Valid {
		return m + "（" + t.Value + "）"
	}
	return m
}

func window(n Normalized) string {
	if !n.WindowStart.Valid && !n.WindowEnd.Valid {
		return Placeholder
	}
	return n.WindowStart.String() + " ~ " + n.WindowEnd.String()
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
