package session

import "sync"

// UnreadCounter 未读通知数的发布/订阅存储。
// 通知视图调用 Set，布局（导航角标）通过 Subscribe 接收变化。
type UnreadCounter struct {
	mu     sync.Mutex
	value  int
	subs   map[uint64]func(int)
	nextID uint64
}

// NewUnreadCounter 创建计数器，初始为 0
func NewUnreadCounter() *UnreadCounter {
	return &UnreadCounter{subs: make(map[uint64]func(int))}
}

// Get 当前值
func (c *UnreadCounter) Get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set 更新计数，值未变化时不通知
func (c *UnreadCounter) Set(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	if c.value == n {
		c.mu.Unlock()
		return
	}
	c.value = n
	subs := make([]func(int), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe 订阅变化，返回取消函数
func (c *UnreadCounter) Subscribe(fn func(int)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
