package service

import (
	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/config"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/jwt"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Session      SessionService
	Role         RoleService
	Notification NotificationService
	Team         TeamService
}

// NewService 创建 Service 聚合。rdb 为 nil 时黑名单与实时通道降级为不可用。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	// 避免把 nil *redis.Client 包装成非 nil 接口
	var (
		blacklist TokenBlacklist
		realtime  Realtime
	)
	if rdb != nil {
		blacklist = rdb
		realtime = rdb
	}

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, realtime, logger),
		Session:      NewSessionService(cfg, repo, jwtMgr, blacklist, realtime, logger),
		Role:         NewRoleService(cfg, repo, realtime, logger),
		Notification: NewNotificationService(cfg, repo, realtime, logger),
		Team:         NewTeamService(repo, logger),
	}
}
