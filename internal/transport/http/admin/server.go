// Package adminhttp 暴露事件接入与运维查询的 HTTP 面。
// 事件接入是给上游 agent 编排层用的：它把已算好的交易事实 POST 进来，
// 这里渲染、审计并投递，响应里带回渲染文本与退化标记。
package adminhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/henryliu8/valuecell/internal/logger"
)

// Server 提供 /api 下的事件接入与查询服务。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 admin HTTP 服务依赖。
type ServerConfig struct {
	Addr   string
	Events EventService
	Audit  AuditReader
	Charts *ChartHandler
}

// NewServer 构建 admin HTTP server。
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Events == nil {
		return nil, errors.New("admin http server requires an event service")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r := &Router{Events: cfg.Events, Audit: cfg.Audit, Charts: cfg.Charts}
	r.Register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler 暴露底层路由，测试直接打 ServeHTTP。
func (s *Server) Handler() http.Handler {
	if s == nil {
		return nil
	}
	return s.router
}

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// requestLogger 记录接口调用，便于追踪上游推送与人工查询。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}
