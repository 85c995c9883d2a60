package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/api/middleware"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/service"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/session"
	pkgerrors "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/errors"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/response"
)

// SSE 事件名
const (
	eventNotifications = "notifications"
	eventNavigation    = "navigation"
	eventUnread        = "unread"
	eventError         = "error"
)

const (
	defaultHeartbeat  = 25 * time.Second
	streamEventBuffer = 16
)

// NotificationHandler 通知模块 HTTP 处理器
type NotificationHandler struct {
	notifSvc   service.NotificationService
	sessionSvc service.SessionService
	roles      session.RoleLoader
	logger     *zap.Logger

	// heartbeat 事件流保活间隔
	heartbeat time.Duration
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(
	notifSvc service.NotificationService,
	sessionSvc service.SessionService,
	roles session.RoleLoader,
	logger *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notifSvc:   notifSvc,
		sessionSvc: sessionSvc,
		roles:      roles,
		logger:     logger,
		heartbeat:  defaultHeartbeat,
	}
}

// List 通知列表（去重、渲染、过滤）
// GET /api/v1/notifications?q=&unread_only=
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	feed, err := h.notifSvc.Feed(c.Request.Context(), userID, query)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, feed)
}

// UnreadCount 未读数（按去重后条目计）
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notifSvc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.UnreadCountResponse{Unread: n})
}

// MarkRead 标记指定通知为已读
// POST /api/v1/notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	n, err := h.notifSvc.MarkRead(c.Request.Context(), userID, req.IDs)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.MarkReadResponse{Updated: n})
}

// MarkAllRead 全部标记为已读
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	n, err := h.notifSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.MarkReadResponse{Updated: n})
}

// Create 发送通知（管理员）
// POST /api/v1/notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	n, err := h.notifSvc.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNotificationType):
			response.BadRequest(c, 23001, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "接收人不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, dto.CreateNotificationResponse{Created: n})
}

type streamEvent struct {
	name string
	data interface{}
}

// Stream 实时事件流（SSE）
// GET /api/v1/notifications/stream
//
// 推送 notifications（完整列表）、navigation（导航与角标）、unread 与 error 事件。
// 会话结束（登出或 Token 被吊销）时发送 error 事件并关闭连接。
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ctx := c.Request.Context()

	store := session.NewStore(h.sessionSvc.Open(c.GetString(middleware.CtxAccessToken)), h.logger)
	defer store.Close()
	if store.Load(ctx) == nil {
		response.Unauthorized(c, 10002, "会话无效")
		return
	}

	events := make(chan streamEvent, streamEventBuffer)
	done := make(chan struct{})
	send := func(name string, data interface{}) {
		select {
		case events <- streamEvent{name: name, data: data}:
		case <-done:
		case <-ctx.Done():
		}
	}

	signedOut := make(chan struct{})
	var once sync.Once
	store.OnSessionChange(func(p *session.Principal) {
		if p == nil {
			once.Do(func() { close(signedOut) })
		}
	})

	ws := session.NewWorkspace(h.roles, h.logger)
	ws.OnError = func(error) {
		send(eventError, gin.H{"message": "角色加载失败，仅显示公共入口"})
	}
	ws.Subscribe(func(snap session.Snapshot) {
		if snap.Loading {
			return
		}
		send(eventNavigation, dto.NavigationResponse{Entries: snap.Navigation, Unread: ws.Unread.Get()})
	})
	ws.Unread.Subscribe(func(n int) {
		send(eventUnread, dto.UnreadCountResponse{Unread: n})
	})

	detach := ws.Attach(ctx, store)
	defer detach()

	stop, err := h.notifSvc.Watch(ctx, userID, query, func(feed *dto.FeedResponse, err error) {
		if err != nil {
			send(eventError, gin.H{"message": "通知加载失败"})
		}
		ws.Unread.Set(feed.Unread)
		send(eventNotifications, feed)
	})
	if err != nil {
		close(done)
		if errors.Is(err, pkgerrors.ErrRealtimeUnavailable) {
			response.ServiceUnavailable(c, 50003, "实时通道不可用")
			return
		}
		h.logger.Error("订阅通知失败", zap.String("user_id", userID), zap.Error(err))
		response.InternalError(c)
		return
	}
	defer stop()
	// 最先执行：释放阻塞在 send 上的回调，之后 stop/detach 才能返回
	defer close(done)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.streamLoop(ctx, c, events, signedOut)
}

func (h *NotificationHandler) streamLoop(ctx context.Context, c *gin.Context, events <-chan streamEvent, signedOut <-chan struct{}) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	write := func(ev streamEvent) {
		c.SSEvent(ev.name, ev.data)
		c.Writer.Flush()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			write(ev)
		case <-ticker.C:
			_, _ = c.Writer.WriteString(": ping\n\n")
			c.Writer.Flush()
		case <-signedOut:
			// 登出前已排队的事件照常发出
		drain:
			for {
				select {
				case ev := <-events:
					write(ev)
				default:
					break drain
				}
			}
			write(streamEvent{name: eventError, data: gin.H{"message": "会话已结束"}})
			return
		}
	}
}
