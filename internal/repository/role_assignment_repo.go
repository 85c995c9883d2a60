package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
)

// RoleAssignmentRepository 角色授予数据访问接口
type RoleAssignmentRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.RoleAssignment, error)
	GetByID(ctx context.Context, id string) (*model.RoleAssignment, error)
	Exists(ctx context.Context, userID, role string, teamID *string) (bool, error)
	Create(ctx context.Context, ra *model.RoleAssignment) error
	Delete(ctx context.Context, id string) error
}

// roleAssignmentRepo RoleAssignmentRepository 的 GORM 实现
type roleAssignmentRepo struct {
	db *gorm.DB
}

// NewRoleAssignmentRepo 创建 RoleAssignmentRepository 实例
func NewRoleAssignmentRepo(db *gorm.DB) RoleAssignmentRepository {
	return &roleAssignmentRepo{db: db}
}

func (r *roleAssignmentRepo) ListByUser(ctx context.Context, userID string) ([]model.RoleAssignment, error) {
	var list []model.RoleAssignment
	err := r.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *roleAssignmentRepo) GetByID(ctx context.Context, id string) (*model.RoleAssignment, error) {
	var ra model.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		First(&ra).Error
	if err != nil {
		return nil, err
	}
	return &ra, nil
}

func (r *roleAssignmentRepo) Exists(ctx context.Context, userID, role string, teamID *string) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.RoleAssignment{}).
		Where("user_id = ? AND role = ?", userID, role)
	if teamID == nil {
		db = db.Where("team_id IS NULL")
	} else {
		db = db.Where("team_id = ?", *teamID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *roleAssignmentRepo) Create(ctx context.Context, ra *model.RoleAssignment) error {
	return r.db.WithContext(ctx).Create(ra).Error
}

func (r *roleAssignmentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Delete(&model.RoleAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
