package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/authz"
)

func team(id string) *string { return &id }

func paths(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func countPath(entries []Entry, path string) int {
	n := 0
	for _, e := range entries {
		if e.Path == path {
			n++
		}
	}
	return n
}

func TestBuild_EmptyRoles(t *testing.T) {
	want := []string{"/", "/self-evaluation", "/storage", "/notifications"}

	assert.Equal(t, want, paths(Build(nil, "")))
	assert.Equal(t, want, paths(Build(authz.RoleSet{}, "T1")))
	assert.Equal(t, want, paths(Build(authz.RoleSet{{Role: "unknown"}}, "")))
}

func TestBuild_PathUniqueAcrossChecks(t *testing.T) {
	roles := authz.RoleSet{
		{Role: authz.RoleAdmin},
		{Role: authz.RoleMaterialsOfficer, TeamID: team("T1")},
	}
	nav := Build(roles, "T1")
	assert.Equal(t, 1, countPath(nav, "/materials-approve"))

	// 非管理员：领队和全局秘书都解锁 /attendance
	roles = authz.RoleSet{
		{Role: authz.RoleTeamLeader, TeamID: team("T1")},
		{Role: authz.RoleSecretary},
	}
	nav = Build(roles, "T1")
	assert.Equal(t, 1, countPath(nav, "/attendance"))
	for _, p := range paths(nav) {
		assert.Equal(t, 1, countPath(nav, p), "路径 %s 重复", p)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	roles := authz.RoleSet{
		{Role: authz.RoleSecretary, TeamID: team("T1")},
		{Role: authz.RoleFinanceOfficer},
		{Role: authz.RoleMaterialsOfficer, TeamID: team("T2")},
	}
	first := Build(roles, "T1")
	second := Build(roles, "T1")
	require.Equal(t, first, second)
	assert.Equal(t,
		[]string{"/", "/finances", "/materials", "/materials-approve", "/secretary/team", "/attendance",
			"/self-evaluation", "/storage", "/notifications"},
		paths(first),
	)
}

func TestBuild_AdminScenario(t *testing.T) {
	roles := authz.RoleSet{{Role: authz.RoleAdmin}}
	require.True(t, authz.IsAdmin(roles))

	nav := Build(roles, "")
	want := []string{Home.Path}
	want = append(want, paths(AdminEntries)...)
	want = append(want, paths(UniversalEntries)...)
	assert.Equal(t, want, paths(nav))

	for _, p := range []string{"/team", "/team-finances", "/reservations", "/secretary/team"} {
		assert.False(t, Contains(nav, p), "管理员导航不应包含 %s", p)
	}
}

func TestBuild_LeaderWithFinanceScenario(t *testing.T) {
	roles := authz.RoleSet{
		{Role: authz.RoleTeamLeader, TeamID: team("T1")},
		{Role: authz.RoleFinanceOfficer, TeamID: team("T1")},
	}
	nav := Build(roles, "T1")

	assert.True(t, Contains(nav, "/team"))
	assert.True(t, Contains(nav, "/reservations"))
	assert.True(t, Contains(nav, "/team-finances"))
	assert.False(t, Contains(nav, "/finances"), "领队不应看到仅财务入口")
}

func TestBuild_SecretaryScopes(t *testing.T) {
	global := Build(authz.RoleSet{{Role: authz.RoleSecretary}}, "T1")
	assert.True(t, Contains(global, "/secretary"))
	assert.False(t, Contains(global, "/secretary/team"))

	own := Build(authz.RoleSet{{Role: authz.RoleSecretary, TeamID: team("T1")}}, "T1")
	assert.True(t, Contains(own, "/secretary/team"))
	assert.False(t, Contains(own, "/secretary"))

	other := Build(authz.RoleSet{{Role: authz.RoleSecretary, TeamID: team("T2")}}, "T1")
	assert.False(t, Contains(other, "/secretary/team"), "其他小队的秘书授予不解锁本队入口")

	noTeam := Build(authz.RoleSet{{Role: authz.RoleSecretary, TeamID: team("T1")}}, "")
	assert.False(t, Contains(noTeam, "/secretary/team"), "没有所属小队时不解锁本队入口")
}

func TestBuild_OrderFollowsRules(t *testing.T) {
	roles := authz.RoleSet{
		{Role: authz.RoleMaterialsOfficer},
		{Role: authz.RoleTeamLeader, TeamID: team("T1")},
	}
	assert.Equal(t,
		[]string{"/", "/team", "/attendance", "/evaluations", "/reservations", "/materials", "/materials-approve",
			"/self-evaluation", "/storage", "/notifications"},
		paths(Build(roles, "T1")),
	)
}
