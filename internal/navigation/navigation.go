// Package navigation 根据角色集合构建侧边栏导航。
//
// 导航顺序由下方显式的规则表决定（插入顺序 = 规则声明顺序），
// 不按字母或其他方式重排，以保证刷新前后列表完全一致。
package navigation

import "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/authz"

// Entry 一个导航目标
type Entry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Rule 一条能力检查及其解锁的导航项
type Rule struct {
	Name    string
	Allow   func(roles authz.RoleSet, ownTeamID string) bool
	Entries []Entry
}

// Home 所有人可见的首页
var Home = Entry{Path: "/", Label: "首页"}

// AdminEntries 管理员完整导航，按优先级排列
var AdminEntries = []Entry{
	{Path: "/members", Label: "成员管理"},
	{Path: "/teams", Label: "小队管理"},
	{Path: "/roles", Label: "角色分配"},
	{Path: "/attendance", Label: "考勤"},
	{Path: "/finances", Label: "财务"},
	{Path: "/materials", Label: "物资"},
	{Path: "/materials-approve", Label: "物资审批"},
	{Path: "/fields", Label: "场地"},
	{Path: "/evaluations", Label: "评估"},
	{Path: "/events", Label: "活动"},
	{Path: "/secretary", Label: "秘书处"},
	{Path: "/media", Label: "宣传"},
}

// UniversalEntries 所有已登录主体都可见，始终追加在末尾
var UniversalEntries = []Entry{
	{Path: "/self-evaluation", Label: "自我评估"},
	{Path: "/storage", Label: "仓库概览"},
	{Path: "/notifications", Label: "通知"},
}

// Rules 非管理员的能力检查序列。顺序即导航顺序，不要调整。
var Rules = []Rule{
	{
		Name: "team-leadership",
		Allow: func(roles authz.RoleSet, _ string) bool {
			return authz.HasRoleAnyScope(roles, authz.RoleTeamLeader)
		},
		Entries: []Entry{
			{Path: "/team", Label: "我的小队"},
			{Path: "/attendance", Label: "考勤"},
			{Path: "/evaluations", Label: "评估"},
			{Path: "/reservations", Label: "物资预约"},
		},
	},
	{
		Name: "finance-leadership",
		Allow: func(roles authz.RoleSet, _ string) bool {
			return authz.HasRoleAnyScope(roles, authz.RoleTeamLeader) &&
				authz.HasRoleAnyScope(roles, authz.RoleFinanceOfficer)
		},
		Entries: []Entry{
			{Path: "/team-finances", Label: "小队财务"},
		},
	},
	{
		Name: "finance-only",
		Allow: func(roles authz.RoleSet, _ string) bool {
			return authz.HasRoleAnyScope(roles, authz.RoleFinanceOfficer) &&
				!authz.HasRoleAnyScope(roles, authz.RoleTeamLeader)
		},
		Entries: []Entry{
			{Path: "/finances", Label: "财务"},
		},
	},
	{
		Name: "materials-approval",
		Allow: func(roles authz.RoleSet, _ string) bool {
			return authz.HasRoleAnyScope(roles, authz.RoleMaterialsOfficer)
		},
		Entries: []Entry{
			{Path: "/materials", Label: "物资"},
			{Path: "/materials-approve", Label: "物资审批"},
		},
	},
	{
		Name: "secretary-global",
		Allow: func(roles authz.RoleSet, _ string) bool {
			return authz.HasGlobalRole(roles, authz.RoleSecretary)
		},
		Entries: []Entry{
			{Path: "/secretary", Label: "秘书处"},
			{Path: "/members", Label: "成员管理"},
			{Path: "/attendance", Label: "考勤"},
		},
	},
	{
		// 仅对本人所在小队的秘书授予生效
		Name: "secretary-team",
		Allow: func(roles authz.RoleSet, ownTeamID string) bool {
			return !authz.HasGlobalRole(roles, authz.RoleSecretary) &&
				authz.HasGlobalOrTeamRole(roles, authz.RoleSecretary, ownTeamID)
		},
		Entries: []Entry{
			{Path: "/secretary/team", Label: "小队秘书处"},
			{Path: "/attendance", Label: "考勤"},
		},
	},
}

// list 按路径去重的有序列表
type list struct {
	entries []Entry
	seen    map[string]struct{}
}

func (l *list) add(entries ...Entry) {
	for _, e := range entries {
		if _, ok := l.seen[e.Path]; ok {
			continue
		}
		l.seen[e.Path] = struct{}{}
		l.entries = append(l.entries, e)
	}
}

// Build 构建当前主体可见的导航。不会失败：空集合只得到首页与通用项。
func Build(roles authz.RoleSet, ownTeamID string) []Entry {
	l := &list{seen: make(map[string]struct{})}
	l.add(Home)

	if authz.IsAdmin(roles) {
		l.add(AdminEntries...)
	} else {
		for _, rule := range Rules {
			if rule.Allow(roles, ownTeamID) {
				l.add(rule.Entries...)
			}
		}
	}

	l.add(UniversalEntries...)
	return l.entries
}

// Contains 导航中是否存在该路径
func Contains(entries []Entry, path string) bool {
	for _, e := range entries {
		if e.Path == path {
			return true
		}
	}
	return false
}
