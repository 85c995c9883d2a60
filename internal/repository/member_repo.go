package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
)

// MemberRepository 队员档案数据访问接口
type MemberRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Member, error)
}

// memberRepo MemberRepository 的 GORM 实现
type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) GetByUserID(ctx context.Context, userID string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}
