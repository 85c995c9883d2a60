package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/navigation"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/service"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/response"
)

// MeHandler 当前主体的角色与导航
type MeHandler struct {
	roleSvc  service.RoleService
	notifSvc service.NotificationService
}

// NewMeHandler 创建 MeHandler
func NewMeHandler(roleSvc service.RoleService, notifSvc service.NotificationService) *MeHandler {
	return &MeHandler{roleSvc: roleSvc, notifSvc: notifSvc}
}

// Roles 当前主体的角色授予
// GET /api/v1/me/roles
func (h *MeHandler) Roles(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.roleSvc.MyRoles(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Navigation 当前主体可见的导航与未读角标
// GET /api/v1/me/navigation
func (h *MeHandler) Navigation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// 任一查询失败都放行：角色按空集合处理只展示公共入口，角标按 0 处理
	var failed []string
	roles, err := h.roleSvc.LoadRoles(ctx, userID)
	if err != nil {
		failed = append(failed, "roles")
	}
	ownTeam, _, err := h.roleSvc.LoadOwnTeam(ctx, userID)
	if err != nil {
		failed = append(failed, "own_team")
	}
	unread, err := h.notifSvc.UnreadCount(ctx, userID)
	if err != nil {
		unread = 0
		failed = append(failed, "unread")
	}

	response.OK(c, dto.NavigationResponse{
		Entries:  navigation.Build(roles, ownTeam),
		Unread:   unread,
		Degraded: len(failed) > 0,
		Failed:   failed,
	})
}
