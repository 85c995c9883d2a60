package dto

// ── 角色模块 DTO ──

// GrantRoleRequest 授予角色请求；team_id 为空表示全局授予
type GrantRoleRequest struct {
	Role   string  `json:"role"    binding:"required"`
	TeamID *string `json:"team_id" binding:"omitempty,uuid"`
}

// RoleAssignmentResponse 角色授予
type RoleAssignmentResponse struct {
	ID     string     `json:"id,omitempty"`
	Role   string     `json:"role"`
	TeamID *string    `json:"team_id"`
	Team   *TeamBrief `json:"team,omitempty"`
}

// MyRolesResponse 当前主体的角色与所属小队；TeamScopes 为角色标签到其小队范围授予的映射
type MyRolesResponse struct {
	Roles      []RoleAssignmentResponse `json:"roles"`
	OwnTeamID  *string                  `json:"own_team_id"`
	IsAdmin    bool                     `json:"is_admin"`
	TeamScopes map[string][]string      `json:"team_scopes"`
}
