package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/service"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/response"
)

// RoleHandler 角色授予管理（仅管理员）
type RoleHandler struct {
	roleSvc service.RoleService
}

// NewRoleHandler 创建 RoleHandler
func NewRoleHandler(roleSvc service.RoleService) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc}
}

// List 查看用户的角色授予
// GET /api/v1/users/:id/roles
func (h *RoleHandler) List(c *gin.Context) {
	list, err := h.roleSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleRoleError(c, err)
		return
	}

	response.OK(c, list)
}

// Grant 授予角色
// POST /api/v1/users/:id/roles
func (h *RoleHandler) Grant(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.roleSvc.Grant(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleRoleError(c, err)
		return
	}

	response.Created(c, result)
}

// Revoke 撤销角色授予
// DELETE /api/v1/role-assignments/:id
func (h *RoleHandler) Revoke(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.roleSvc.Revoke(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleRoleError(c, err)
		return
	}

	response.OK(c, nil)
}

func handleRoleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 21001, err.Error())
	case errors.Is(err, service.ErrAdminMustBeGlobal):
		response.BadRequest(c, 21002, err.Error())
	case errors.Is(err, service.ErrRevokeOwnAdmin):
		response.BadRequest(c, 21003, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrTeamNotFound):
		response.NotFound(c, 22001, err.Error())
	case errors.Is(err, service.ErrRoleAssignmentNotFound):
		response.NotFound(c, 21004, err.Error())
	case errors.Is(err, service.ErrRoleAssignmentExists):
		response.Conflict(c, 21005, err.Error())
	default:
		response.InternalError(c)
	}
}
