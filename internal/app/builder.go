package app

import (
	"context"
	"fmt"
	"time"

	vccfg "github.com/henryliu8/valuecell/internal/config"
	"github.com/henryliu8/valuecell/internal/gateway/notifier"
	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/notify"
	"github.com/henryliu8/valuecell/internal/render"
	"github.com/henryliu8/valuecell/internal/store/notifylog"
	"github.com/henryliu8/valuecell/internal/store/portfolio"
	"github.com/henryliu8/valuecell/internal/timezone"
	adminhttp "github.com/henryliu8/valuecell/internal/transport/http/admin"
)

// AppBuilder 按依赖顺序装配服务。各构造函数可被测试替换。
type AppBuilder struct {
	cfg *vccfg.Config

	timezoneFn   func(vccfg.DisplayConfig) (timezone.Provider, error)
	auditStoreFn func(vccfg.StoreConfig) (*notifylog.Store, error)
	pointStoreFn func(vccfg.StoreConfig) (*portfolio.Store, error)
	adminHTTPFn  func(adminhttp.ServerConfig) (*adminhttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *vccfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:          cfg,
		timezoneFn:   buildTimezoneProvider,
		auditStoreFn: buildAuditStore,
		pointStoreFn: buildPointStore,
		adminHTTPFn:  adminhttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func buildTimezoneProvider(cfg vccfg.DisplayConfig) (timezone.Provider, error) {
	return timezone.FromConfig(cfg.Timezone)
}

func buildAuditStore(cfg vccfg.StoreConfig) (*notifylog.Store, error) {
	return notifylog.New(cfg.NotificationsPath)
}

func buildPointStore(cfg vccfg.StoreConfig) (*portfolio.Store, error) {
	return portfolio.Open(cfg.PortfolioPath)
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	tz, err := b.timezoneFn(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("resolve display timezone: %w", err)
	}
	renderer := render.NewRenderer(tz)
	clock := render.SystemClock()

	audit, err := b.auditStoreFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open notification audit store: %w", err)
	}
	points, err := b.pointStoreFn(cfg.Store)
	if err != nil {
		audit.Close()
		return nil, fmt.Errorf("open portfolio point store: %w", err)
	}

	dispatcher, registry, err := b.buildDispatcher(cfg.Notify)
	if err != nil {
		audit.Close()
		points.Close()
		return nil, err
	}

	service, err := notify.NewService(notify.Options{
		Trades:           render.NewTradeFormatter(renderer),
		Portfolios:       render.NewPortfolioFormatter(renderer, clock),
		Analyses:         render.NewAnalysisFormatter(renderer, clock),
		AgentLabel:       cfg.Agent.Label,
		Audit:            audit,
		Points:           points,
		Dispatcher:       dispatcher,
		ValidatePayloads: cfg.Notify.ValidatePayloads,
	})
	if err != nil {
		audit.Close()
		points.Close()
		return nil, err
	}

	var charts *adminhttp.ChartHandler
	if cfg.Chart.Enabled {
		charts = &adminhttp.ChartHandler{
			Points: points,
			Model:  cfg.Agent.Model,
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
		}
	}
	adminServer, err := b.adminHTTPFn(adminhttp.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Events: service,
		Audit:  audit,
		Charts: charts,
	})
	if err != nil {
		audit.Close()
		points.Close()
		return nil, err
	}

	return &App{
		cfg:        cfg,
		service:    service,
		adminHTTP:  adminServer,
		dispatcher: dispatcher,
		registry:   registry,
		closers:    []func() error{audit.Close, points.Close},
	}, nil
}

// buildDispatcher 组装通知扇出。配置了 channels.yaml 时走热加载注册表，
// 否则用主配置里的 telegram 设置搭一套固定通道。
func (b *AppBuilder) buildDispatcher(cfg vccfg.NotifyConfig) (*notifier.Dispatcher, *notifier.Registry, error) {
	dispatcher := notifier.NewDispatcher()

	if cfg.HasChannelsFile() {
		registry, err := notifier.NewRegistry(cfg.ChannelsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load channel registry: %w", err)
		}
		dispatcher.ApplySnapshot(registry.Snapshot())
		registry.Subscribe(dispatcher.ApplySnapshot)
		return dispatcher, registry, nil
	}

	dispatcher.SetChannel("log", notifier.NewLogNotifier())
	routes := map[string][]string{
		notifier.KindTrade:     {"log"},
		notifier.KindPortfolio: {"log"},
		notifier.KindAnalysis:  {"log"},
	}
	if cfg.Telegram.Enabled {
		dispatcher.SetChannel("telegram", notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
		for kind := range routes {
			routes[kind] = append(routes[kind], "telegram")
		}
		logger.Infof("Telegram 通道已启用 chat_id=%s", cfg.Telegram.ChatID)
	}
	dispatcher.SetRoutes(routes)

	throttle := make(map[string]time.Duration, len(cfg.ThrottleSeconds))
	for kind, secs := range cfg.ThrottleSeconds {
		if secs > 0 {
			throttle[kind] = time.Duration(secs) * time.Second
		}
	}
	dispatcher.SetThrottle(throttle)
	return dispatcher, nil, nil
}
