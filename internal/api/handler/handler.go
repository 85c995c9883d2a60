package handler

import (
	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Me           *MeHandler
	Notification *NotificationHandler
	Role         *RoleHandler
	Team         *TeamHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Me:           NewMeHandler(svc.Role, svc.Notification),
		Notification: NewNotificationHandler(svc.Notification, svc.Session, svc.Role, logger),
		Role:         NewRoleHandler(svc.Role),
		Team:         NewTeamHandler(svc.Team),
	}
}
