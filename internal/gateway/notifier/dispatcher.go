package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/henryliu8/valuecell/internal/logger"
)

// Throttler 限制同类通知的最小发送间隔。没配间隔的类别不限流。
type Throttler struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	interval map[string]time.Duration
	now      func() time.Time
}

func NewThrottler(intervals map[string]time.Duration) *Throttler {
	t := &Throttler{
		lastSent: make(map[string]time.Time),
		interval: make(map[string]time.Duration),
		now:      time.Now,
	}
	for kind, d := range intervals {
		if d > 0 {
			t.interval[kind] = d
		}
	}
	return t
}

// Allow 判断 kind 当前是否可发，可发时立即记账。
func (t *Throttler) Allow(kind string) bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	interval, ok := t.interval[kind]
	if !ok || interval <= 0 {
		return true
	}
	now := t.now()
	if last, seen := t.lastSent[kind]; seen && now.Sub(last) < interval {
		return false
	}
	t.lastSent[kind] = now
	return true
}

// Dispatcher 按通知类别把文本扇出到一组命名通道。
// 通道、路由、限流都可以整体热替换，配合 channels.yaml 的热加载。
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]TextNotifier
	routes   map[string][]string
	throttle *Throttler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		channels: make(map[string]TextNotifier),
		routes:   make(map[string][]string),
		throttle: NewThrottler(nil),
	}
}

// SetChannel 注册或覆盖一个命名通道，ch 为 nil 时移除。
func (d *Dispatcher) SetChannel(name string, ch TextNotifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch == nil {
		delete(d.channels, name)
		return
	}
	d.channels[name] = ch
}

// SetRoutes 整体替换 kind 到通道名列表的路由表。
func (d *Dispatcher) SetRoutes(routes map[string][]string) {
	cloned := make(map[string][]string, len(routes))
	for kind, names := range routes {
		cloned[kind] = append([]string(nil), names...)
	}
	d.mu.Lock()
	d.routes = cloned
	d.mu.Unlock()
}

// SetThrottle 整体替换各类别的限流间隔。
func (d *Dispatcher) SetThrottle(intervals map[string]time.Duration) {
	t := NewThrottler(intervals)
	d.mu.Lock()
	d.throttle = t
	d.mu.Unlock()
}

// Channels 返回已注册通道名，字典序。
func (d *Dispatcher) Channels() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.channels))
	for name := range d.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routes 返回当前路由表副本。
func (d *Dispatcher) Routes() map[string][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string][]string, len(d.routes))
	for kind, names := range d.routes {
		out[kind] = append([]string(nil), names...)
	}
	return out
}

// Dispatch 把 text 并发投递到 kind 路由到的全部通道。
// 被限流或没有路由时静默跳过；任一通道失败时等全部发完再返回首个错误，
// 投递失败只影响返回值，不会中断其他通道。
func (d *Dispatcher) Dispatch(ctx context.Context, kind, text string) error {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	throttle := d.throttle
	d.mu.RUnlock()
	if !throttle.Allow(kind) {
		logger.Debugf("通知被限流跳过 kind=%s", kind)
		return nil
	}
	targets := d.resolve(kind)
	if len(targets) == 0 {
		logger.Debugf("kind=%s 没有可用通道，跳过投递", kind)
		return nil
	}
	group, _ := errgroup.WithContext(ctx)
	for name, ch := range targets {
		name, ch := name, ch
		group.Go(func() error {
			if err := ch.SendText(text); err != nil {
				logger.Warnf("通道 %s 投递失败 kind=%s: %v", name, kind, err)
				return fmt.Errorf("channel %s: %w", name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

func (d *Dispatcher) resolve(kind string) map[string]TextNotifier {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := d.routes[kind]
	out := make(map[string]TextNotifier, len(names))
	for _, name := range names {
		ch, ok := d.channels[name]
		if !ok || ch == nil {
			logger.Warnf("路由引用了未注册的通道 %s（kind=%s）", name, kind)
			continue
		}
		out[name] = ch
	}
	return out
}
