package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func team(id string) *string { return &id }

func TestHasGlobalRole_Pure(t *testing.T) {
	roles := RoleSet{
		{Role: RoleSecretary, TeamID: team("team-7")},
		{Role: RoleFinanceOfficer},
	}
	before := make(RoleSet, len(roles))
	copy(before, roles)

	first := HasGlobalRole(roles, RoleFinanceOfficer)
	second := HasGlobalRole(roles, RoleFinanceOfficer)

	assert.True(t, first)
	assert.Equal(t, first, second)
	require.Equal(t, before, roles, "判定不应修改入参")
}

func TestScopeStrictness(t *testing.T) {
	roles := RoleSet{{Role: RoleTeamLeader}}

	assert.True(t, HasGlobalRole(roles, RoleTeamLeader))
	assert.False(t, HasTeamRole(roles, RoleTeamLeader, "team-42"), "全局授予不应匹配队伍范围判定")
	assert.True(t, HasRoleAnyScope(roles, RoleTeamLeader))
	assert.True(t, HasGlobalOrTeamRole(roles, RoleTeamLeader, "team-42"))
}

func TestHasTeamRole(t *testing.T) {
	roles := RoleSet{{Role: RoleMaterialsOfficer, TeamID: team("T1")}}

	tests := []struct {
		name   string
		tag    Role
		teamID string
		want   bool
	}{
		{"同队伍同标签", RoleMaterialsOfficer, "T1", true},
		{"其他队伍", RoleMaterialsOfficer, "T2", false},
		{"其他标签", RoleSecretary, "T1", false},
		{"空队伍", RoleMaterialsOfficer, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTeamRole(roles, tt.tag, tt.teamID))
		})
	}
	assert.False(t, HasGlobalRole(roles, RoleMaterialsOfficer))
	assert.True(t, HasRoleAnyScope(roles, RoleMaterialsOfficer))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(RoleSet{{Role: RoleAdmin}}))
	assert.False(t, IsAdmin(RoleSet{{Role: RoleAdmin, TeamID: team("T1")}}), "队伍范围的 admin 不是管理员")
	assert.False(t, IsAdmin(nil))
	assert.False(t, IsAdmin(RoleSet{}))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Team_Leader ")
	require.True(t, ok)
	assert.Equal(t, RoleTeamLeader, r)

	_, ok = ParseRole("captain")
	assert.False(t, ok)
}

func TestTeamsFor(t *testing.T) {
	roles := RoleSet{
		{Role: RoleSecretary, TeamID: team("T2")},
		{Role: RoleSecretary},
		{Role: RoleSecretary, TeamID: team("T1")},
		{Role: RoleSecretary, TeamID: team("T2")},
		{Role: RoleTeamLeader, TeamID: team("T3")},
	}
	assert.Equal(t, []string{"T1", "T2"}, TeamsFor(roles, RoleSecretary))
	assert.Empty(t, TeamsFor(roles, RoleAdmin))
}
