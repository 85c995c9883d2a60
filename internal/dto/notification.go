package dto

import "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/notify"

// ── 通知模块 DTO ──

// FeedQuery 通知列表查询参数
type FeedQuery struct {
	Q          string `form:"q"           binding:"omitempty,max=100"`
	UnreadOnly bool   `form:"unread_only"`
}

// MarkReadRequest 标记已读请求
type MarkReadRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// CreateNotificationRequest 管理员发送通知
type CreateNotificationRequest struct {
	UserIDs []string               `json:"user_ids" binding:"required,min=1,dive,uuid"`
	Type    string                 `json:"type"     binding:"omitempty,max=50"` // 默认 generic-event
	Payload map[string]interface{} `json:"payload"`
}

// FeedResponse 去重、渲染后的通知列表
type FeedResponse struct {
	Items  []notify.Item `json:"items"`
	Unread int           `json:"unread"` // 基于去重后未读子集，与搜索过滤无关
	Total  int           `json:"total"`  // 去重后条数
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// MarkReadResponse 标记结果
type MarkReadResponse struct {
	Updated int `json:"updated"`
}

// CreateNotificationResponse 发送结果
type CreateNotificationResponse struct {
	Created int `json:"created"`
}
