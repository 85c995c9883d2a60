package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
)

// ── 小队模块业务错误 ──

var ErrTeamNameExists = errors.New("小队名称已存在")

// TeamService 小队业务接口
type TeamService interface {
	Create(ctx context.Context, req *dto.CreateTeamRequest, callerID string) (*dto.TeamResponse, error)
	List(ctx context.Context, page *dto.PaginationRequest) ([]dto.TeamResponse, int64, error)
}

type teamService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTeamService 创建 TeamService 实例
func NewTeamService(repo *repository.Repository, logger *zap.Logger) TeamService {
	return &teamService{repo: repo, logger: logger}
}

func (s *teamService) Create(ctx context.Context, req *dto.CreateTeamRequest, callerID string) (*dto.TeamResponse, error) {
	name := strings.TrimSpace(req.Name)

	// 检查名称唯一性
	existing, err := s.repo.Team.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询小队失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrTeamNameExists
	}

	team := &model.Team{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	team.CreatedBy = &callerID
	team.UpdatedBy = &callerID

	if err := s.repo.Team.Create(ctx, team); err != nil {
		s.logger.Error("创建小队失败", zap.Error(err))
		return nil, err
	}

	resp := toTeamResponse(team)
	return &resp, nil
}

func (s *teamService) List(ctx context.Context, page *dto.PaginationRequest) ([]dto.TeamResponse, int64, error) {
	teams, total, err := s.repo.Team.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询小队列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		result = append(result, toTeamResponse(&teams[i]))
	}
	return result, total, nil
}

func toTeamResponse(t *model.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:          t.TeamID,
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}
