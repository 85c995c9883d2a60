package service

import (
	"context"
	"encoding/json"
	"time"
)

// Realtime 实时发布/订阅通道（由 pkg/redis.Client 实现）
type Realtime interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string, handler func(payload string)) (unsubscribe func(), err error)
}

// TokenBlacklist Token 黑名单（由 pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// ClaimToken 原子占用 jti，已被占用或已在黑名单中时返回 false
	ClaimToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// 认证频道上的事件
const (
	authEventSignedOut      = "signed_out"
	authEventTokenRefreshed = "token_refreshed"
	authEventRolesChanged   = "roles_changed"
)

// authMessage 认证频道消息；JTI 为空的 signed_out 作用于该用户的全部会话
type authMessage struct {
	Event string `json:"event"`
	JTI   string `json:"jti,omitempty"`
}

func (m authMessage) encode() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// notificationsChanged 通知频道只传递“有变化”，订阅方自行全量重新拉取
const notificationsChanged = "changed"

func authChannel(prefix, userID string) string {
	return prefix + ":auth:" + userID
}

func notificationChannel(prefix, userID string) string {
	return prefix + ":notifications:" + userID
}
