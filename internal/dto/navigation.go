package dto

import "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/navigation"

// NavigationResponse 导航菜单与未读角标。
// Degraded 表示有查询失败、结果按降级处理；Failed 列出失败的部分（roles / own_team / unread）
type NavigationResponse struct {
	Entries  []navigation.Entry `json:"entries"`
	Unread   int                `json:"unread"`
	Degraded bool               `json:"degraded"`
	Failed   []string           `json:"failed,omitempty"`
}
