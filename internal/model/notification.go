package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification 通知事件 — 对应 notifications
// Payload 结构随生产方而异，由 notify 包统一归一化
type Notification struct {
	NotificationID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string            `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string            `gorm:"type:varchar(50);not null"                      json:"type"`
	Payload        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"payload"`
	IsRead         bool              `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
