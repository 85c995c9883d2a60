package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/config"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/authz"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
)

var (
	ErrInvalidRole            = errors.New("无效的角色")
	ErrAdminMustBeGlobal      = errors.New("管理员角色只能全局授予")
	ErrTeamNotFound           = errors.New("小队不存在")
	ErrRoleAssignmentExists   = errors.New("该角色授予已存在")
	ErrRoleAssignmentNotFound = errors.New("角色授予不存在")
	ErrRevokeOwnAdmin         = errors.New("不能撤销自己的管理员角色")
)

// RoleService 角色解析与管理接口
type RoleService interface {
	// LoadRoles 读取主体的全部角色授予。失败时返回非 nil 的空集合与错误。
	LoadRoles(ctx context.Context, userID string) (authz.RoleSet, error)
	// LoadOwnTeam 主体档案所属小队；无档案或未分队时 ok 为 false
	LoadOwnTeam(ctx context.Context, userID string) (teamID string, ok bool, err error)

	MyRoles(ctx context.Context, userID string) (*dto.MyRolesResponse, error)
	List(ctx context.Context, userID string) ([]dto.RoleAssignmentResponse, error)
	Grant(ctx context.Context, userID string, req *dto.GrantRoleRequest, callerID string) (*dto.RoleAssignmentResponse, error)
	Revoke(ctx context.Context, assignmentID, callerID string) error
}

type roleService struct {
	cfg      *config.Config
	repo     *repository.Repository
	realtime Realtime
	logger   *zap.Logger
}

// NewRoleService 创建 RoleService 实例；realtime 可为 nil
func NewRoleService(cfg *config.Config, repo *repository.Repository, realtime Realtime, logger *zap.Logger) RoleService {
	return &roleService{cfg: cfg, repo: repo, realtime: realtime, logger: logger}
}

func (s *roleService) LoadRoles(ctx context.Context, userID string) (authz.RoleSet, error) {
	list, err := s.repo.RoleAssignment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询角色授予失败", zap.String("user_id", userID), zap.Error(err))
		return authz.RoleSet{}, err
	}

	roles := make(authz.RoleSet, 0, len(list))
	for _, ra := range list {
		role, ok := authz.ParseRole(ra.Role)
		if !ok {
			s.logger.Warn("忽略未知角色", zap.String("role", ra.Role), zap.String("assignment_id", ra.AssignmentID))
			continue
		}
		roles = append(roles, authz.RoleAssignment{Role: role, TeamID: ra.TeamID})
	}
	return roles, nil
}

func (s *roleService) LoadOwnTeam(ctx context.Context, userID string) (string, bool, error) {
	member, err := s.repo.Member.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		s.logger.Error("查询队员档案失败", zap.String("user_id", userID), zap.Error(err))
		return "", false, err
	}
	if member.TeamID == nil || *member.TeamID == "" {
		return "", false, nil
	}
	return *member.TeamID, true, nil
}

func (s *roleService) MyRoles(ctx context.Context, userID string) (*dto.MyRolesResponse, error) {
	roles, err := s.LoadRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	teamID, ok, err := s.LoadOwnTeam(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MyRolesResponse{
		Roles:      make([]dto.RoleAssignmentResponse, 0, len(roles)),
		IsAdmin:    authz.IsAdmin(roles),
		TeamScopes: make(map[string][]string),
	}
	for _, r := range roles {
		resp.Roles = append(resp.Roles, dto.RoleAssignmentResponse{Role: string(r.Role), TeamID: r.TeamID})
		if r.TeamID != nil {
			resp.TeamScopes[string(r.Role)] = authz.TeamsFor(roles, r.Role)
		}
	}
	if ok {
		resp.OwnTeamID = &teamID
	}
	return resp, nil
}

func (s *roleService) List(ctx context.Context, userID string) ([]dto.RoleAssignmentResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	list, err := s.repo.RoleAssignment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询角色授予失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoleAssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toRoleAssignmentResponse(&list[i]))
	}
	return result, nil
}

func (s *roleService) Grant(ctx context.Context, userID string, req *dto.GrantRoleRequest, callerID string) (*dto.RoleAssignmentResponse, error) {
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	teamID := req.TeamID
	if teamID != nil && *teamID == "" {
		teamID = nil
	}
	if role == authz.RoleAdmin && teamID != nil {
		return nil, ErrAdminMustBeGlobal
	}

	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var team *model.Team
	if teamID != nil {
		t, err := s.repo.Team.GetByID(ctx, *teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		team = t
	}

	exists, err := s.repo.RoleAssignment.Exists(ctx, userID, string(role), teamID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRoleAssignmentExists
	}

	ra := &model.RoleAssignment{
		UserID: userID,
		Role:   string(role),
		TeamID: teamID,
		BaseModel: model.BaseModel{
			CreatedBy: &callerID,
			UpdatedBy: &callerID,
		},
	}
	if err := s.repo.RoleAssignment.Create(ctx, ra); err != nil {
		s.logger.Error("创建角色授予失败", zap.Error(err))
		return nil, err
	}
	ra.Team = team

	s.logger.Info("已授予角色",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.Stringp("team_id", teamID),
		zap.String("by", callerID),
	)
	s.publishRolesChanged(ctx, userID)

	resp := toRoleAssignmentResponse(ra)
	return &resp, nil
}

func (s *roleService) Revoke(ctx context.Context, assignmentID, callerID string) error {
	ra, err := s.repo.RoleAssignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleAssignmentNotFound
		}
		return err
	}
	if ra.UserID == callerID && ra.Role == string(authz.RoleAdmin) && ra.TeamID == nil {
		return ErrRevokeOwnAdmin
	}

	if err := s.repo.RoleAssignment.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleAssignmentNotFound
		}
		s.logger.Error("删除角色授予失败", zap.Error(err))
		return err
	}

	s.logger.Info("已撤销角色",
		zap.String("user_id", ra.UserID),
		zap.String("role", ra.Role),
		zap.String("by", callerID),
	)
	s.publishRolesChanged(ctx, ra.UserID)
	return nil
}

// publishRolesChanged 通知在线会话全量重新拉取角色
func (s *roleService) publishRolesChanged(ctx context.Context, userID string) {
	if s.realtime == nil {
		return
	}
	msg := authMessage{Event: authEventRolesChanged}
	if err := s.realtime.Publish(ctx, authChannel(s.cfg.Notification.ChannelPrefix, userID), msg.encode()); err != nil {
		s.logger.Warn("发布角色变更事件失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func toRoleAssignmentResponse(ra *model.RoleAssignment) dto.RoleAssignmentResponse {
	resp := dto.RoleAssignmentResponse{
		ID:     ra.AssignmentID,
		Role:   ra.Role,
		TeamID: ra.TeamID,
	}
	if ra.Team != nil {
		resp.Team = &dto.TeamBrief{ID: ra.Team.TeamID, Name: ra.Team.Name}
	}
	return resp
}
