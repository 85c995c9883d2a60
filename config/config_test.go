package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("TROOP_AUTH_JWT_SECRET", "test-secret-key-for-unit-testing")
	t.Setenv("TROOP_SERVER_PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("显式指定的配置文件不存在时应返回错误")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("notification:\n  feed_limit: 50\n"), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望环境变量覆盖 port=9090，实际=%d", cfg.Server.Port)
	}
	if cfg.Notification.FeedLimit != 50 {
		t.Errorf("期望配置文件 feed_limit=50，实际=%d", cfg.Notification.FeedLimit)
	}
	if cfg.Notification.ChannelPrefix != "troop" {
		t.Errorf("期望默认 channel_prefix=troop，实际=%s", cfg.Notification.ChannelPrefix)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("期望默认 access_token_ttl=15m，实际=%v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.RateLimit.LoginWindow != time.Minute {
		t.Errorf("期望默认 login_window=1m，实际=%v", cfg.RateLimit.LoginWindow)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:       ServerConfig{Port: 8080},
		Auth:         AuthConfig{JWTSecret: "0123456789abcdef"},
		Notification: NotificationConfig{FeedLimit: 10},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"空密钥", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"feed_limit 为 0", func(c *Config) { c.Notification.FeedLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}
