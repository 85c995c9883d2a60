// Package session 维护当前主体及其派生状态（角色、导航、未读数）。
//
// Store 跟踪认证协作方报告的主体；Workspace 在主体变化后拉取角色、
// 重建导航，并丢弃已过期主体的迟到结果。
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Principal 已认证的主体
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthEvent 会话变化类型
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
	EventUserUpdated    AuthEvent = "user_updated" // 主体不变，派生信息（如角色）需重新拉取
)

// AuthSource 认证协作方
type AuthSource interface {
	// GetSession 当前会话快照，无会话时返回 nil, nil
	GetSession(ctx context.Context) (*Principal, error)
	// OnAuthStateChange 注册会话变化回调，返回取消函数
	OnAuthStateChange(fn func(event AuthEvent, p *Principal)) (unsubscribe func())
}

// Store 当前主体的持有者
type Store struct {
	src    AuthSource
	logger *zap.Logger

	mu       sync.Mutex
	current  *Principal
	handlers map[uint64]func(*Principal)
	nextID   uint64
	unsub    func()
}

// NewStore 创建 Store 并订阅认证协作方的会话变化
func NewStore(src AuthSource, logger *zap.Logger) *Store {
	s := &Store{
		src:      src,
		logger:   logger,
		handlers: make(map[uint64]func(*Principal)),
	}
	s.unsub = src.OnAuthStateChange(s.handleAuthEvent)
	return s
}

// Load 从认证协作方读取会话快照。失败时按未登录处理，不返回错误。
func (s *Store) Load(ctx context.Context) *Principal {
	p, err := s.src.GetSession(ctx)
	if err != nil {
		s.logger.Warn("读取会话失败，按未登录处理", zap.Error(err))
		p = nil
	}
	s.set(p)
	return p
}

// Current 最近一次已知的主体，不做 I/O
func (s *Store) Current() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnSessionChange 注册主体变化回调（nil 表示已登出），返回取消函数
func (s *Store) OnSessionChange(fn func(*Principal)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// Close 取消对认证协作方的订阅并清空回调
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.handlers = make(map[uint64]func(*Principal))
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Store) handleAuthEvent(event AuthEvent, p *Principal) {
	if event == EventSignedOut {
		p = nil
	}
	s.logger.Debug("会话变化", zap.String("event", string(event)), zap.Bool("authenticated", p != nil))
	s.set(p)
}

// set 更新主体并通知回调。回调在锁外执行，可以安全地回调 Store。
func (s *Store) set(p *Principal) {
	s.mu.Lock()
	s.current = p
	handlers := make([]func(*Principal), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
}
