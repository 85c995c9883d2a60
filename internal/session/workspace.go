package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/authz"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/navigation"
	pkgerrors "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/errors"
)

// RoleLoader 角色解析器
type RoleLoader interface {
	// LoadRoles 失败时仍返回非 nil 的空集合
	LoadRoles(ctx context.Context, principalID string) (authz.RoleSet, error)
	LoadOwnTeam(ctx context.Context, principalID string) (string, bool, error)
}

// Snapshot 某一时刻的主体派生状态
type Snapshot struct {
	Principal  *Principal         `json:"principal"`
	Roles      authz.RoleSet      `json:"roles"`
	OwnTeamID  string             `json:"own_team_id,omitempty"`
	Navigation []navigation.Entry `json:"navigation"`
	Loading    bool               `json:"loading"`
}

// Workspace 跟随主体变化维护角色与导航。
//
// 每次主体变化都会取消上一次未完成的拉取；迟到的结果只有在其主体仍是当前主体时才会提交。
type Workspace struct {
	loader RoleLoader
	logger *zap.Logger

	// Unread 未读数共享存储，通知视图写入，导航订阅
	Unread *UnreadCounter

	// OnError 拉取失败时回调（可为 nil）
	OnError func(error)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot
	subs   map[uint64]func(Snapshot)
	nextID uint64
}

// NewWorkspace 创建 Workspace，初始为未登录状态
func NewWorkspace(loader RoleLoader, logger *zap.Logger) *Workspace {
	return &Workspace{
		loader: loader,
		logger: logger,
		Unread: NewUnreadCounter(),
		snap:   Snapshot{Roles: authz.RoleSet{}, Navigation: navigation.Build(nil, "")},
		subs:   make(map[uint64]func(Snapshot)),
	}
}

// Attach 跟随 Store：立即按当前主体拉取一次，此后每次会话变化重新拉取。
// 返回的函数解除跟随并取消未完成的拉取。
func (w *Workspace) Attach(ctx context.Context, store *Store) (detach func()) {
	unsub := store.OnSessionChange(func(p *Principal) {
		w.SetPrincipal(ctx, p)
	})
	w.SetPrincipal(ctx, store.Current())
	return func() {
		unsub()
		w.mu.Lock()
		w.gen++
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
		w.mu.Unlock()
	}
}

// SetPrincipal 切换主体并异步拉取角色。返回的 channel 在本次拉取提交或被丢弃后关闭。
func (w *Workspace) SetPrincipal(ctx context.Context, p *Principal) <-chan struct{} {
	done := make(chan struct{})

	w.mu.Lock()
	w.gen++
	gen := w.gen
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	if p == nil {
		w.snap = Snapshot{Roles: authz.RoleSet{}, Navigation: navigation.Build(nil, "")}
		snap := w.snap
		subs := w.subscribers()
		w.mu.Unlock()

		w.Unread.Set(0)
		notify(subs, snap)
		close(done)
		return done
	}

	loadCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	if prev := w.snap.Principal; prev == nil || prev.ID != p.ID {
		// 换人时不能沿用上一个主体的角色与导航
		w.snap = Snapshot{Roles: authz.RoleSet{}, Navigation: navigation.Build(nil, "")}
	}
	w.snap.Principal = p
	w.snap.Loading = true
	snap := w.snap
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, snap)

	go func() {
		defer close(done)
		defer cancel()
		w.load(loadCtx, gen, p)
	}()
	return done
}

// Refresh 为当前主体重新拉取角色（例如收到角色变更事件）
func (w *Workspace) Refresh(ctx context.Context) <-chan struct{} {
	w.mu.Lock()
	p := w.snap.Principal
	w.mu.Unlock()
	return w.SetPrincipal(ctx, p)
}

func (w *Workspace) load(ctx context.Context, gen uint64, p *Principal) {
	roles, err := w.loader.LoadRoles(ctx, p.ID)
	if err != nil {
		w.report(err)
	}
	if roles == nil {
		roles = authz.RoleSet{}
	}

	ownTeam, ok, err := w.loader.LoadOwnTeam(ctx, p.ID)
	if err != nil {
		w.report(err)
	}
	if !ok {
		ownTeam = ""
	}

	if err := w.commit(gen, p, roles, ownTeam); err != nil {
		w.logger.Debug("丢弃过期的角色结果", zap.String("principal_id", p.ID), zap.Error(err))
	}
}

// commit 仅当代数与主体都未变化时写入结果
func (w *Workspace) commit(gen uint64, p *Principal, roles authz.RoleSet, ownTeam string) error {
	w.mu.Lock()
	if gen != w.gen || w.snap.Principal == nil || w.snap.Principal.ID != p.ID {
		w.mu.Unlock()
		return pkgerrors.ErrStaleResult
	}
	w.snap = Snapshot{
		Principal:  p,
		Roles:      roles,
		OwnTeamID:  ownTeam,
		Navigation: navigation.Build(roles, ownTeam),
	}
	snap := w.snap
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, snap)
	return nil
}

func (w *Workspace) report(err error) {
	w.logger.Warn("拉取角色信息失败", zap.Error(err))
	if w.OnError != nil {
		w.OnError(err)
	}
}

// Snapshot 当前状态
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// Subscribe 订阅状态变化，返回取消函数
func (w *Workspace) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// subscribers 调用方需持有 w.mu
func (w *Workspace) subscribers() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(w.subs))
	for _, fn := range w.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
