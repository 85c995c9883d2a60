// Package authz 基于角色授权集合的纯函数判定。
//
// 所有判定函数不做 I/O、不修改入参，同样的输入永远得到同样的结果，
// 页面、中间件与导航构建共用同一套判定逻辑。
package authz

import (
	"sort"
	"strings"
)

// Role 角色标签（固定词表）
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleTeamLeader       Role = "team-leader"
	RoleFinanceOfficer   Role = "finance-officer"
	RoleMaterialsOfficer Role = "materials-officer"
	RoleSecretary        Role = "secretary"
	RoleMediaOfficer     Role = "media-officer"
	RoleGenericLeader    Role = "generic-leader"
	RoleParticipant      Role = "participant"
)

// Roles 完整角色词表，顺序即展示顺序
var Roles = []Role{
	RoleAdmin,
	RoleTeamLeader,
	RoleFinanceOfficer,
	RoleMaterialsOfficer,
	RoleSecretary,
	RoleMediaOfficer,
	RoleGenericLeader,
	RoleParticipant,
}

// Valid 是否属于角色词表
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole 解析角色标签，兼容大小写与下划线写法（team_leader → team-leader）
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
	return r, r.Valid()
}

// RoleAssignment 一条角色授予。TeamID 为 nil 表示全局（组织级）授予。
type RoleAssignment struct {
	Role   Role    `json:"role"`
	TeamID *string `json:"team_id,omitempty"`
}

// Global 是否为全局授予
func (a RoleAssignment) Global() bool {
	return a.TeamID == nil
}

// RoleSet 某个主体持有的全部授予，顺序无关，允许同一标签多次出现
type RoleSet []RoleAssignment

// HasGlobalRole 存在该标签且不带队伍的授予
func HasGlobalRole(roles RoleSet, tag Role) bool {
	for _, a := range roles {
		if a.Role == tag && a.TeamID == nil {
			return true
		}
	}
	return false
}

// HasTeamRole 存在该标签且队伍等于 teamID 的授予。
// 全局授予不会被当作匹配任意队伍，需要两种范围都接受时用 HasRoleAnyScope 或分别判断。
func HasTeamRole(roles RoleSet, tag Role, teamID string) bool {
	for _, a := range roles {
		if a.Role == tag && a.TeamID != nil && *a.TeamID == teamID {
			return true
		}
	}
	return false
}

// HasRoleAnyScope 全局或任意队伍范围内持有该标签
func HasRoleAnyScope(roles RoleSet, tag Role) bool {
	for _, a := range roles {
		if a.Role == tag {
			return true
		}
	}
	return false
}

// IsAdmin 全局管理员
func IsAdmin(roles RoleSet) bool {
	return HasGlobalRole(roles, RoleAdmin)
}

// HasGlobalOrTeamRole 全局持有，或在指定队伍内持有
func HasGlobalOrTeamRole(roles RoleSet, tag Role, teamID string) bool {
	return HasGlobalRole(roles, tag) || (teamID != "" && HasTeamRole(roles, tag, teamID))
}

// TeamsFor 该标签所作用的队伍 ID（去重、升序），不含全局授予
func TeamsFor(roles RoleSet, tag Role) []string {
	seen := make(map[string]struct{})
	teams := make([]string, 0)
	for _, a := range roles {
		if a.Role != tag || a.TeamID == nil {
			continue
		}
		if _, ok := seen[*a.TeamID]; ok {
			continue
		}
		seen[*a.TeamID] = struct{}{}
		teams = append(teams, *a.TeamID)
	}
	sort.Strings(teams)
	return teams
}
