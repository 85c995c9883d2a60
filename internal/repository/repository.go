package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User           UserRepository
	Team           TeamRepository
	Member         MemberRepository
	RoleAssignment RoleAssignmentRepository
	Notification   NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:           NewUserRepo(db),
		Team:           NewTeamRepo(db),
		Member:         NewMemberRepo(db),
		RoleAssignment: NewRoleAssignmentRepo(db),
		Notification:   NewNotificationRepo(db),
	}
}
