//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=scout_troop_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	// 使用正式迁移建表，确保 mark_notifications_read 函数存在
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func createUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "测试用户",
		Email:        fmt.Sprintf("test%d@troop.test", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
	}
	if err := testDB.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	t.Cleanup(func() {
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	})
	return user
}

// ═══════════════════════════════════════════════════════════
// Test: mark_notifications_read
// ═══════════════════════════════════════════════════════════

func TestNotification_MarkReadOnlyOwnRows(t *testing.T) {
	alice := createUser(t)
	bob := createUser(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	list := []model.Notification{
		{UserID: alice.UserID, Type: "generic-event", Payload: map[string]interface{}{"note": "a1"}},
		{UserID: alice.UserID, Type: "generic-event", Payload: map[string]interface{}{"note": "a2"}},
		{UserID: bob.UserID, Type: "generic-event", Payload: map[string]interface{}{"note": "b1"}},
	}
	if err := repo.Notification.CreateBatch(ctx, list); err != nil {
		t.Fatalf("CreateBatch 失败: %v", err)
	}

	// 传入他人的通知 ID 不应生效
	n, err := repo.Notification.MarkRead(ctx, alice.UserID, []string{list[0].NotificationID, list[2].NotificationID})
	if err != nil {
		t.Fatalf("MarkRead 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望标记 1 条，实际=%d", n)
	}

	n, err = repo.Notification.MarkRead(ctx, alice.UserID, nil)
	if err != nil {
		t.Fatalf("MarkRead(全部) 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望剩余 1 条被标记，实际=%d", n)
	}

	bobs, err := repo.Notification.ListRecent(ctx, bob.UserID, 10)
	if err != nil {
		t.Fatalf("ListRecent 失败: %v", err)
	}
	if len(bobs) != 1 || bobs[0].IsRead {
		t.Error("他人的通知不应被标记已读")
	}

	unread, err := repo.Notification.ListUnread(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("ListUnread 失败: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("全部已读后期望 0 条未读，实际=%d", len(unread))
	}
	unread, err = repo.Notification.ListUnread(ctx, bob.UserID)
	if err != nil {
		t.Fatalf("ListUnread 失败: %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("期望 bob 有 1 条未读，实际=%d", len(unread))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: role_assignments 唯一约束
// ═══════════════════════════════════════════════════════════

func TestRoleAssignment_ScopeUniqueness(t *testing.T) {
	user := createUser(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	team := &model.Team{Name: fmt.Sprintf("测试小队-%d", time.Now().UnixNano()), IsActive: true}
	if err := repo.Team.Create(ctx, team); err != nil {
		t.Fatalf("创建小队失败: %v", err)
	}
	t.Cleanup(func() {
		testDB.Unscoped().Where("team_id = ?", team.TeamID).Delete(&model.Team{})
	})

	global := &model.RoleAssignment{UserID: user.UserID, Role: "secretary"}
	scoped := &model.RoleAssignment{UserID: user.UserID, Role: "secretary", TeamID: &team.TeamID}
	if err := repo.RoleAssignment.Create(ctx, global); err != nil {
		t.Fatalf("创建全局授予失败: %v", err)
	}
	if err := repo.RoleAssignment.Create(ctx, scoped); err != nil {
		t.Fatalf("同一角色的小队授予应允许共存: %v", err)
	}
	if err := repo.RoleAssignment.Create(ctx, &model.RoleAssignment{UserID: user.UserID, Role: "secretary"}); err == nil {
		t.Error("重复的全局授予应违反唯一约束")
	}

	exists, err := repo.RoleAssignment.Exists(ctx, user.UserID, "secretary", nil)
	if err != nil || !exists {
		t.Errorf("期望全局授予存在，err=%v", err)
	}

	list, err := repo.RoleAssignment.ListByUser(ctx, user.UserID)
	if err != nil {
		t.Fatalf("ListByUser 失败: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("期望 2 条授予，实际=%d", len(list))
	}

	if err := repo.RoleAssignment.Delete(ctx, global.AssignmentID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if err := repo.RoleAssignment.Delete(ctx, global.AssignmentID); err != gorm.ErrRecordNotFound {
		t.Errorf("重复删除应返回 ErrRecordNotFound，实际=%v", err)
	}
}
