package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/config"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/dto"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/model"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/notify"
	"github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/internal/repository"
	pkgerrors "github.com/Minamilad162/ScoutGuidesSVMManagerApplication-sub000/pkg/errors"
)

var ErrInvalidNotificationType = errors.New("无效的通知类型")

// NotificationService 通知列表业务接口
type NotificationService interface {
	// Feed 拉取、去重、渲染并过滤。拉取失败时返回空列表与错误。
	Feed(ctx context.Context, userID string, query dto.FeedQuery) (*dto.FeedResponse, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, req *dto.CreateNotificationRequest) (int, error)
	// Watch 立即推送一次列表，此后每次收到变化信号都全量重新拉取并推送。
	// fn 不会并发调用；stop 返回后不再调用 fn。
	Watch(ctx context.Context, userID string, query dto.FeedQuery, fn func(*dto.FeedResponse, error)) (stop func(), err error)
}

type notificationService struct {
	cfg      *config.Config
	repo     *repository.Repository
	realtime Realtime
	logger   *zap.Logger

	markAll singleflight.Group
}

// NewNotificationService 创建 NotificationService 实例；realtime 可为 nil
func NewNotificationService(cfg *config.Config, repo *repository.Repository, realtime Realtime, logger *zap.Logger) NotificationService {
	return &notificationService{cfg: cfg, repo: repo, realtime: realtime, logger: logger}
}

func (s *notificationService) Feed(ctx context.Context, userID string, query dto.FeedQuery) (*dto.FeedResponse, error) {
	events, err := s.fetch(ctx, userID)
	if err != nil {
		return &dto.FeedResponse{Items: []notify.Item{}}, err
	}

	unread, err := s.fetchUnread(ctx, userID)
	if err != nil {
		return &dto.FeedResponse{Items: []notify.Item{}}, err
	}

	items := notify.Prepare(events)
	return &dto.FeedResponse{
		Items:  notify.Filter(items, query.Q, query.UnreadOnly),
		Unread: notify.UnreadCount(notify.Prepare(unread)),
		Total:  len(items),
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	// 未读数按全部未读计算，展示条数上限只约束列表
	unread, err := s.fetchUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return notify.UnreadCount(notify.Prepare(unread)), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	// 空列表在存储层表示全部，这里必须提前返回
	if len(ids) == 0 {
		return 0, nil
	}

	recent, err := s.fetch(ctx, userID)
	if err != nil {
		return 0, err
	}
	unread, err := s.fetchUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	byID := make(map[string]notify.Event, len(recent)+len(unread))
	for _, e := range recent {
		byID[e.ID] = e
	}
	for _, e := range unread {
		byID[e.ID] = e
	}

	// 被点选的条目排在前面作为各组代表，隐藏的未读重复条目一并标记
	events := make([]notify.Event, 0, len(ids)+len(unread))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			events = append(events, e)
		}
	}
	events = append(events, unread...)
	groups := notify.Groups(events)

	expanded := make([]string, 0, len(ids))
	for _, id := range ids {
		expanded = append(expanded, id)
		expanded = append(expanded, groups[id]...)
	}
	expanded = dedupeStrings(expanded)

	n, err := s.repo.Notification.MarkRead(ctx, userID, expanded)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.publishChanged(ctx, userID)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	// 同一主体的并发请求共享一次执行
	v, err, shared := s.markAll.Do(userID, func() (interface{}, error) {
		n, err := s.repo.Notification.MarkRead(context.WithoutCancel(ctx), userID, nil)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			s.publishChanged(ctx, userID)
		}
		return n, nil
	})
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	if shared {
		s.logger.Debug("全部已读请求已合并", zap.String("user_id", userID))
	}
	return v.(int), nil
}

func (s *notificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) (int, error) {
	typ := notify.TypeGenericEvent
	if req.Type != "" {
		typ = notify.Type(req.Type)
		if !typ.Known() {
			return 0, ErrInvalidNotificationType
		}
	}

	recipients := dedupeStrings(req.UserIDs)
	found, err := s.repo.User.ListIDs(ctx, recipients)
	if err != nil {
		return 0, err
	}
	if len(found) != len(recipients) {
		return 0, ErrUserNotFound
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	list := make([]model.Notification, 0, len(recipients))
	for _, uid := range recipients {
		list = append(list, model.Notification{UserID: uid, Type: string(typ), Payload: payload})
	}
	if err := s.repo.Notification.CreateBatch(ctx, list); err != nil {
		s.logger.Error("创建通知失败", zap.Error(err))
		return 0, err
	}

	for _, uid := range recipients {
		s.publishChanged(ctx, uid)
	}
	return len(list), nil
}

func (s *notificationService) Watch(ctx context.Context, userID string, query dto.FeedQuery, fn func(*dto.FeedResponse, error)) (func(), error) {
	if s.realtime == nil {
		return nil, pkgerrors.ErrRealtimeUnavailable
	}

	var mu sync.Mutex
	stopped := false
	push := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		fn(s.Feed(ctx, userID, query))
	}

	// 先订阅再推送初始列表，避免漏掉两者之间的变化
	unsub, err := s.realtime.Subscribe(ctx, notificationChannel(s.cfg.Notification.ChannelPrefix, userID), func(string) {
		push()
	})
	if err != nil {
		return nil, err
	}
	push()

	return func() {
		unsub()
		mu.Lock()
		stopped = true
		mu.Unlock()
	}, nil
}

func (s *notificationService) fetch(ctx context.Context, userID string) ([]notify.Event, error) {
	rows, err := s.repo.Notification.ListRecent(ctx, userID, s.cfg.Notification.FeedLimit)
	if err != nil {
		s.logger.Error("拉取通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toEvents(rows), nil
}

func (s *notificationService) fetchUnread(ctx context.Context, userID string) ([]notify.Event, error) {
	rows, err := s.repo.Notification.ListUnread(ctx, userID)
	if err != nil {
		s.logger.Error("拉取未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toEvents(rows), nil
}

func toEvents(rows []model.Notification) []notify.Event {
	events := make([]notify.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, notify.Event{
			ID:        r.NotificationID,
			Type:      notify.Type(r.Type),
			Payload:   r.Payload,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		})
	}
	return events
}

func (s *notificationService) publishChanged(ctx context.Context, userID string) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.Publish(ctx, notificationChannel(s.cfg.Notification.ChannelPrefix, userID), notificationsChanged); err != nil {
		s.logger.Warn("发布通知变化失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
