package model

// Member 队员档案 — 对应 members
// 一个登录主体最多关联一条档案，因此最多属于一个小队
type Member struct {
	MemberID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	UserID          *string `gorm:"type:uuid;uniqueIndex"                          json:"user_id,omitempty"`
	TeamID          *string `gorm:"type:uuid"                                      json:"team_id,omitempty"`
	Name            string  `gorm:"type:varchar(100);not null"                     json:"name"`
	GuardianContact string  `gorm:"type:varchar(100)"                              json:"guardian_contact,omitempty"`
	SoftDeleteModel

	// 关联
	Team *Team `gorm:"foreignKey:TeamID;references:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (Member) TableName() string { return "members" }
