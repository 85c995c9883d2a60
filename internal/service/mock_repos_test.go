package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListIDs(_ context.Context, ids []string) ([]string, error) {
	var found []string
	for _, id := range ids {
		if _, ok := m.users[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams map[string]*model.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: make(map[string]*model.Team)}
}

func (m *mockTeamRepo) Create(_ context.Context, team *model.Team) error {
	if team.TeamID == "" {
		team.TeamID = "team-" + team.Name
	}
	team.CreatedAt = time.Now()
	m.teams[team.TeamID] = team
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) GetByName(_ context.Context, name string) (*model.Team, error) {
	for _, t := range m.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeamRepo) List(_ context.Context, offset, limit int) ([]model.Team, int64, error) {
	var all []model.Team
	for _, t := range m.teams {
		if t.IsActive {
			all = append(all, *t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock MemberRepository ──

type mockMemberRepo struct {
	members map[string]*model.Member // key: user_id
	err     error
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[string]*model.Member)}
}

func (m *mockMemberRepo) GetByUserID(_ context.Context, userID string) (*model.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	if mem, ok := m.members[userID]; ok {
		return mem, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock RoleAssignmentRepository ──

type mockRoleAssignmentRepo struct {
	mu   sync.Mutex
	list []*model.RoleAssignment
	seq  int
	err  error
}

func newMockRoleAssignmentRepo() *mockRoleAssignmentRepo {
	return &mockRoleAssignmentRepo{}
}

func (m *mockRoleAssignmentRepo) ListByUser(_ context.Context, userID string) ([]model.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.RoleAssignment
	for _, ra := range m.list {
		if ra.UserID == userID {
			result = append(result, *ra)
		}
	}
	return result, nil
}

func (m *mockRoleAssignmentRepo) GetByID(_ context.Context, id string) (*model.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ra := range m.list {
		if ra.AssignmentID == id {
			return ra, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleAssignmentRepo) Exists(_ context.Context, userID, role string, teamID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ra := range m.list {
		if ra.UserID != userID || ra.Role != role {
			continue
		}
		if (teamID == nil && ra.TeamID == nil) || (teamID != nil && ra.TeamID != nil && *teamID == *ra.TeamID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoleAssignmentRepo) Create(_ context.Context, ra *model.RoleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if ra.AssignmentID == "" {
		ra.AssignmentID = fmt.Sprintf("ra-%d", m.seq)
	}
	m.list = append(m.list, ra)
	return nil
}

func (m *mockRoleAssignmentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ra := range m.list {
		if ra.AssignmentID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockRoleAssignmentRepo) add(userID, role string, teamID *string) {
	_ = m.Create(context.Background(), &model.RoleAssignment{UserID: userID, Role: role, TeamID: teamID})
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu        sync.Mutex
	rows      []model.Notification // 按创建时间倒序
	err       error
	markCalls int
	markGate  chan struct{} // 非 nil 时 MarkRead 阻塞直到关闭
	lastIDs   []string
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) ListRecent(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Notification
	for _, n := range m.rows {
		if n.UserID == userID {
			result = append(result, n)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) ListUnread(_ context.Context, userID string) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Notification
	for _, n := range m.rows {
		if n.UserID == userID && !n.IsRead {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int, error) {
	m.mu.Lock()
	m.markCalls++
	gate := m.markGate
	m.lastIDs = ids
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range m.rows {
		r := &m.rows[i]
		if r.UserID != userID || r.IsRead {
			continue
		}
		if ids == nil || want[r.NotificationID] {
			r.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) CreateBatch(_ context.Context, list []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range list {
		list[i].NotificationID = fmt.Sprintf("n-new-%d", len(m.rows)+i)
		list[i].CreatedAt = time.Now()
	}
	m.rows = append(append([]model.Notification{}, list...), m.rows...)
	return nil
}

func (m *mockNotificationRepo) add(id, userID, typ string, payload map[string]interface{}, read bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, model.Notification{
		NotificationID: id,
		UserID:         userID,
		Type:           typ,
		Payload:        payload,
		IsRead:         read,
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(len(m.rows)) * time.Minute),
	})
}

// ── Fake Realtime ──

type fakeRealtime struct {
	mu        sync.Mutex
	handlers  map[string]map[int]func(string)
	seq       int
	published []string // "channel|payload"
	failSub   bool
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{handlers: make(map[string]map[int]func(string))}
}

// Publish 同步投递给当前订阅者
func (f *fakeRealtime) Publish(_ context.Context, channel, payload string) error {
	f.mu.Lock()
	f.published = append(f.published, channel+"|"+payload)
	hs := make([]func(string), 0, len(f.handlers[channel]))
	for _, h := range f.handlers[channel] {
		hs = append(hs, h)
	}
	f.mu.Unlock()

	for _, h := range hs {
		h(payload)
	}
	return nil
}

func (f *fakeRealtime) Subscribe(_ context.Context, channel string, handler func(string)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSub {
		return nil, errors.New("subscribe failed")
	}
	f.seq++
	id := f.seq
	if f.handlers[channel] == nil {
		f.handlers[channel] = make(map[int]func(string))
	}
	f.handlers[channel][id] = handler
	return func() {
		f.mu.Lock()
		delete(f.handlers[channel], id)
		f.mu.Unlock()
	}, nil
}

func (f *fakeRealtime) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.published...)
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu       sync.Mutex
	jtis     map[string]time.Duration
	claimErr error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		m.jtis[jti] = ttl
	}
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

func (m *mockBlacklist) ClaimToken(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimErr != nil {
		return false, m.claimErr
	}
	if _, ok := m.jtis[jti]; ok {
		return false, nil
	}
	m.jtis[jti] = ttl
	return true, nil
}

// ── 测试辅助 ──

type mockRepos struct {
	user   *mockUserRepo
	team   *mockTeamRepo
	member *mockMemberRepo
	role   *mockRoleAssignmentRepo
	notif  *mockNotificationRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		user:   newMockUserRepo(),
		team:   newMockTeamRepo(),
		member: newMockMemberRepo(),
		role:   newMockRoleAssignmentRepo(),
		notif:  newMockNotificationRepo(),
	}
	return &repository.Repository{
		User:           m.user,
		Team:           m.team,
		Member:         m.member,
		RoleAssignment: m.role,
		Notification:   m.notif,
	}, m
}

func strPtr(s string) *string { return &s }
