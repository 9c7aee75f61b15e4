package notifier

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/henryliu8/valuecell/internal/logger"
)

// ChannelSpec 描述 channels.yaml 里的单个通道。
type ChannelSpec struct {
	Type     string `mapstructure:"type" yaml:"type"`
	Enabled  *bool  `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id"`
}

// IsEnabled 缺省按启用处理，显式 enabled: false 才关闭。
func (s ChannelSpec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// FileConfig 映射 channels.yaml。
type FileConfig struct {
	Channels        map[string]ChannelSpec `mapstructure:"channels" yaml:"channels"`
	Routes          map[string][]string    `mapstructure:"routes" yaml:"routes"`
	ThrottleSeconds map[string]int         `mapstructure:"throttle_seconds" yaml:"throttle_seconds"`
}

// Snapshot 是某一版 channels.yaml 的规整结果。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Channels map[string]ChannelSpec
	Routes   map[string][]string
	Throttle map[string]time.Duration
}

// ChangeListener 在 registry 重载后触发。
type ChangeListener func(Snapshot)

// Registry 管理通道配置文件，文件变更时热加载并通知订阅方。
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry 读取 channels.yaml 并监听更新。
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("channel registry requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read channels config failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("channels reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot 返回当前通道快照。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Subscribe 注册重载回调。回调在独立 goroutine 里执行。
func (r *Registry) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	cfg, err := readChannelsFile(r.path)
	if err != nil {
		return err
	}

	channels := make(map[string]ChannelSpec, len(cfg.Channels))
	for name, spec := range cfg.Channels {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		spec.Type = strings.ToLower(strings.TrimSpace(spec.Type))
		channels[name] = spec
	}

	routes := make(map[string][]string, len(cfg.Routes))
	for kind, names := range cfg.Routes {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" {
			continue
		}
		if !KnownKind(kind) {
			logger.Warnf("channels.yaml 路由里有未知类别 %q，按原样保留", kind)
		}
		cleaned := make([]string, 0, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				cleaned = append(cleaned, n)
			}
		}
		routes[kind] = cleaned
	}

	throttle := make(map[string]time.Duration, len(cfg.ThrottleSeconds))
	for kind, secs := range cfg.ThrottleSeconds {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" || secs <= 0 {
			continue
		}
		throttle[kind] = time.Duration(secs) * time.Second
	}

	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Channels: channels,
		Routes:   routes,
		Throttle: throttle,
	}
	r.mu.Unlock()
	logger.Infof("Channel registry loaded %d channels from %s", len(channels), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer safeRecover("channel registry listener")
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Channels: make(map[string]ChannelSpec, len(src.Channels)),
		Routes:   make(map[string][]string, len(src.Routes)),
		Throttle: make(map[string]time.Duration, len(src.Throttle)),
	}
	for name, spec := range src.Channels {
		dst.Channels[name] = spec
	}
	for kind, names := range src.Routes {
		dst.Routes[kind] = append([]string(nil), names...)
	}
	for kind, d := range src.Throttle {
		dst.Throttle[kind] = d
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}

func readChannelsFile(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read channels config failed: %w", err)
	}
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse channels config failed: %w", err)
	}
	return cfg, nil
}

// ApplySnapshot 用一次快照整体重建 Dispatcher 的通道、路由与限流。
// registry 模式下 channels.yaml 是唯一事实来源，重载即全量替换。
func (d *Dispatcher) ApplySnapshot(snap Snapshot) {
	next := make(map[string]TextNotifier, len(snap.Channels))
	for name, spec := range snap.Channels {
		if !spec.IsEnabled() {
			logger.Infof("通道 %s 已禁用，跳过", name)
			continue
		}
		ch, err := buildChannel(spec)
		if err != nil {
			logger.Errorf("构建通道 %s 失败: %v", name, err)
			continue
		}
		next[name] = ch
	}
	d.mu.Lock()
	d.channels = next
	d.mu.Unlock()
	d.SetRoutes(snap.Routes)
	d.SetThrottle(snap.Throttle)
	logger.Infof("通知通道已更新 version=%d channels=%d", snap.Version, len(next))
}

func buildChannel(spec ChannelSpec) (TextNotifier, error) {
	switch spec.Type {
	case "telegram":
		if spec.BotToken == "" || spec.ChatID == "" {
			return nil, fmt.Errorf("telegram 通道缺少 bot_token/chat_id")
		}
		return NewTelegram(spec.BotToken, spec.ChatID), nil
	case "log":
		return NewLogNotifier(), nil
	default:
		return nil, fmt.Errorf("未知通道类型 %q", spec.Type)
	}
}
