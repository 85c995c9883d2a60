package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/session"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/jwt"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/redis"
)

type sessionFixture struct {
	sessions SessionService
	auth     AuthService
	roles    RoleService
	repos    *mockRepos
	jwtMgr   *jwt.Manager
}

// setupRedisSessions 使用 miniredis 驱动真实的黑名单与发布/订阅
func setupRedisSessions(t *testing.T) *sessionFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), zap.NewNop())
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	repo, repos := newMockRepository()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repos.user.users["u-1"] = &model.User{UserID: "u-1", Name: "队长", Email: "leader@troop.test"}
	repos.user.users["admin-1"] = &model.User{UserID: "admin-1"}

	return &sessionFixture{
		sessions: NewSessionService(cfg, repo, jwtMgr, rdb, rdb, zap.NewNop()),
		auth:     NewAuthService(cfg, repo, jwtMgr, rdb, rdb, zap.NewNop()),
		roles:    NewRoleService(cfg, repo, rdb, zap.NewNop()),
		repos:    repos,
		jwtMgr:   jwtMgr,
	}
}

func TestTokenSession_GetSession(t *testing.T) {
	f := setupRedisSessions(t)
	ctx := context.Background()

	access, _ := f.jwtMgr.GenerateAccessToken("u-1")
	p, err := f.sessions.Open(access).GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "队长", p.Name)

	refresh, _ := f.jwtMgr.GenerateRefreshToken("u-1", false)
	p, err = f.sessions.Open(refresh).GetSession(ctx)
	assert.NoError(t, err)
	assert.Nil(t, p, "RefreshToken 不能建立会话")

	p, err = f.sessions.Open("garbage").GetSession(ctx)
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestTokenSession_SignOutEndsStore(t *testing.T) {
	f := setupRedisSessions(t)
	ctx := context.Background()

	access, _ := f.jwtMgr.GenerateAccessToken("u-1")
	other, _ := f.jwtMgr.GenerateAccessToken("u-1")

	store := session.NewStore(f.sessions.Open(access), zap.NewNop())
	defer store.Close()
	require.NotNil(t, store.Load(ctx))

	changes := make(chan *session.Principal, 4)
	store.OnSessionChange(func(p *session.Principal) { changes <- p })

	// 另一个会话登出不影响本会话
	otherClaims, _ := f.jwtMgr.ParseToken(other)
	require.NoError(t, f.auth.Logout(ctx, otherClaims))

	claims, _ := f.jwtMgr.ParseToken(access)
	require.NoError(t, f.auth.Logout(ctx, claims))

	select {
	case p := <-changes:
		assert.Nil(t, p, "本会话登出后主体应为空")
	case <-time.After(2 * time.Second):
		t.Fatal("未收到登出事件")
	}
	assert.Nil(t, store.Current())

	p, err := f.sessions.Open(access).GetSession(ctx)
	assert.NoError(t, err)
	assert.Nil(t, p, "已吊销的 Token 不能再建立会话")
}

func TestTokenSession_RolesChangedRefetches(t *testing.T) {
	f := setupRedisSessions(t)
	ctx := context.Background()

	access, _ := f.jwtMgr.GenerateAccessToken("u-1")
	store := session.NewStore(f.sessions.Open(access), zap.NewNop())
	defer store.Close()
	store.Load(ctx)

	ws := session.NewWorkspace(f.roles, zap.NewNop())
	committed := make(chan session.Snapshot, 8)
	ws.Subscribe(func(s session.Snapshot) {
		if !s.Loading {
			committed <- s
		}
	})
	detach := ws.Attach(ctx, store)
	defer detach()

	select {
	case s := <-committed:
		assert.Empty(t, s.Roles)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到初始快照")
	}

	_, err := f.roles.Grant(ctx, "u-1", &dto.GrantRoleRequest{Role: "admin"}, "admin-1")
	require.NoError(t, err)

	select {
	case s := <-committed:
		require.NotNil(t, s.Principal)
		assert.Equal(t, "u-1", s.Principal.ID)
		assert.Len(t, s.Roles, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("角色变更后未重新拉取")
	}
}
