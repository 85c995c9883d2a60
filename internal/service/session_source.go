package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/config"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/session"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/jwt"
)

// SessionService 为长连接（SSE）创建基于 Bearer Token 的认证协作方
type SessionService interface {
	Open(accessToken string) session.AuthSource
}

type sessionService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	realtime  Realtime
	logger    *zap.Logger
}

// NewSessionService 创建 SessionService 实例；blacklist、realtime 可为 nil
func NewSessionService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	realtime Realtime,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		realtime:  realtime,
		logger:    logger,
	}
}

func (s *sessionService) Open(accessToken string) session.AuthSource {
	return &TokenSession{svc: s, token: accessToken}
}

// TokenSession 以 access token 为凭据的会话来源。
// 会话变化来自 Redis 频道 <prefix>:auth:<user_id>。
type TokenSession struct {
	svc   *sessionService
	token string
}

var _ session.AuthSource = (*TokenSession)(nil)

// GetSession 解析 Token 并加载主体；Token 已失效或被吊销时返回 nil, nil
func (t *TokenSession) GetSession(ctx context.Context) (*session.Principal, error) {
	claims, err := t.claims()
	if err != nil {
		return nil, nil
	}

	if t.svc.blacklist != nil {
		revoked, err := t.svc.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Redis 故障时放行，与 HTTP 中间件一致
			t.svc.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, nil
		}
	}

	user, err := t.svc.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session.Principal{ID: user.UserID, Name: user.Name, Email: user.Email}, nil
}

// OnAuthStateChange 订阅该用户的认证频道；实时通道不可用时不会收到任何事件
func (t *TokenSession) OnAuthStateChange(fn func(event session.AuthEvent, p *session.Principal)) (unsubscribe func()) {
	noop := func() {}

	claims, err := t.claims()
	if err != nil || t.svc.realtime == nil {
		return noop
	}

	ctx, cancel := context.WithCancel(context.Background())
	channel := authChannel(t.svc.cfg.Notification.ChannelPrefix, claims.UserID)
	unsub, err := t.svc.realtime.Subscribe(ctx, channel, func(payload string) {
		var msg authMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			t.svc.logger.Warn("忽略无法解析的认证事件", zap.String("payload", payload))
			return
		}

		switch msg.Event {
		case authEventSignedOut:
			if msg.JTI == "" || msg.JTI == claims.ID {
				fn(session.EventSignedOut, nil)
			}
		case authEventTokenRefreshed:
			p, err := t.GetSession(ctx)
			if err != nil {
				t.svc.logger.Warn("刷新会话失败", zap.Error(err))
				return
			}
			fn(session.EventTokenRefreshed, p)
		case authEventRolesChanged:
			p, err := t.GetSession(ctx)
			if err != nil {
				t.svc.logger.Warn("刷新会话失败", zap.Error(err))
				return
			}
			fn(session.EventUserUpdated, p)
		}
	})
	if err != nil {
		cancel()
		t.svc.logger.Warn("订阅认证频道失败", zap.String("channel", channel), zap.Error(err))
		return noop
	}

	return func() {
		unsub()
		cancel()
	}
}

func (t *TokenSession) claims() (*jwt.Claims, error) {
	claims, err := t.svc.jwtMgr.ParseToken(t.token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
