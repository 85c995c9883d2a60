package model

// RoleAssignment 角色授予 — 对应 role_assignments
// TeamID 为空表示全局授予
type RoleAssignment struct {
	AssignmentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	UserID       string  `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Role         string  `gorm:"type:varchar(30);not null"                      json:"role"`
	TeamID       *string `gorm:"type:uuid"                                      json:"team_id,omitempty"`
	BaseModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (RoleAssignment) TableName() string { return "role_assignments" }
