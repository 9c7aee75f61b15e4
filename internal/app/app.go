// Package app 负责应用级编排：加载配置 → 初始化依赖 → 启动 HTTP 服务。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	vccfg "github.com/henryliu8/valuecell/internal/config"
	"github.com/henryliu8/valuecell/internal/gateway/notifier"
	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/notify"
	adminhttp "github.com/henryliu8/valuecell/internal/transport/http/admin"
)

// App 持有装配完成的服务与待关闭资源。
type App struct {
	cfg        *vccfg.Config
	service    *notify.Service
	adminHTTP  *adminhttp.Server
	dispatcher *notifier.Dispatcher
	registry   *notifier.Registry
	closers    []func() error
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *vccfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	a.logStartupSummary()

	group, ctx := errgroup.WithContext(ctx)
	if a.adminHTTP != nil {
		group.Go(func() error {
			if err := a.adminHTTP.Start(ctx); err != nil {
				return fmt.Errorf("admin http server error: %w", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Service 暴露通知服务实例（测试/回放工具用）。
func (a *App) Service() *notify.Service {
	if a == nil {
		return nil
	}
	return a.service
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warnf("关闭资源失败: %v", err)
		}
	}
}

// logStartupSummary 把装配结果以统一消息格式写进日志。
func (a *App) logStartupSummary() {
	channelLines := []string{"(none)"}
	routeLines := []string{"(none)"}
	if a.dispatcher != nil {
		if names := a.dispatcher.Channels(); len(names) > 0 {
			channelLines = names
		}
		routes := a.dispatcher.Routes()
		if len(routes) > 0 {
			routeLines = routeLines[:0]
			for kind, targets := range routes {
				routeLines = append(routeLines, fmt.Sprintf("%s -> %v", kind, targets))
			}
		}
	}
	msg := notifier.OpsNotice{
		Emblem:   "🔔",
		Headline: fmt.Sprintf("Notification service online (env=%s)", a.cfg.App.Env),
		Sections: []notifier.NoticeSection{
			{Name: "Channels", Items: channelLines},
			{Name: "Routes", Items: routeLines},
			{Name: "HTTP", Items: []string{a.adminHTTP.Addr()}},
		},
		At: time.Now().UTC(),
	}
	logger.InfoBlock(msg.Markdown())
}
