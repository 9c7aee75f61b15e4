package adminhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henryliu8/valuecell/internal/render"
	"github.com/henryliu8/valuecell/internal/store/notifylog"
	"github.com/henryliu8/valuecell/internal/types"
)

// 单个事件体的大小上限。通知正文走 Telegram 也就几 KB，
// 超出的基本是误用或攻击。
const maxEventBody = 256 << 10

// EventService 由 notify.Service 实现，处理三类事件的推送。
type EventService interface {
	PushTrade(ctx context.Context, rec types.TradeRecord, agentLabel string) (render.Result, error)
	PushPortfolio(ctx context.Context, snap types.PortfolioSnapshot) (render.Result, []byte, error)
	PushAnalysis(ctx context.Context, req types.AnalysisRequest) (render.Result, error)
}

// AuditReader 暴露审计库的查询面。
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]notifylog.Record, error)
	RecentDegraded(ctx context.Context, limit int) ([]notifylog.Record, error)
	CountByKind(ctx context.Context) (map[string]int64, error)
}

// Router 挂载 /api 下的全部路由。
type Router struct {
	Events EventService
	Audit  AuditReader
	Charts *ChartHandler
}

// Register 将路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/events/trade", r.handleTradeEvent)
	group.POST("/events/portfolio", r.handlePortfolioEvent)
	group.POST("/events/analysis", r.handleAnalysisEvent)
	if r.Audit != nil {
		group.GET("/notifications", r.handleNotifications)
		group.GET("/notifications/degraded", r.handleDegraded)
		group.GET("/notifications/stats", r.handleStats)
	}
	if r.Charts != nil {
		group.GET("/portfolio/chart", r.Charts.handleChartHTML)
		group.GET("/portfolio/chart.png", r.Charts.handleChartPNG)
	}
}

func (r *Router) handleTradeEvent(c *gin.Context) {
	raw, ok := readEventBody(c)
	if !ok {
		return
	}
	rec, err := types.TradeRecordFromJSON(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, pushErr := r.Events.PushTrade(c.Request.Context(), rec, c.Query("agent"))
	respondResult(c, res, nil, pushErr)
}

func (r *Router) handlePortfolioEvent(c *gin.Context) {
	raw, ok := readEventBody(c)
	if !ok {
		return
	}
	snap, err := types.PortfolioSnapshotFromJSON(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, payload, pushErr := r.Events.PushPortfolio(c.Request.Context(), snap)
	respondResult(c, res, payload, pushErr)
}

func (r *Router) handleAnalysisEvent(c *gin.Context) {
	raw, ok := readEventBody(c)
	if !ok {
		return
	}
	req, err := types.AnalysisRequestFromJSON(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, pushErr := r.Events.PushAnalysis(c.Request.Context(), req)
	respondResult(c, res, nil, pushErr)
}

// respondResult 统一事件响应：渲染文本总是可用，
// 下游存储/投递失败降级为 delivery_error 字段，HTTP 仍然 200。
func respondResult(c *gin.Context, res render.Result, payload []byte, pushErr error) {
	body := gin.H{
		"text":     res.Text,
		"degraded": res.Degraded,
	}
	if res.Cause != nil {
		body["cause"] = res.Cause.Error()
	}
	if len(payload) > 0 {
		body["chart_payload"] = json.RawMessage(payload)
	}
	if pushErr != nil {
		body["delivery_error"] = pushErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

func readEventBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return nil, false
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return nil, false
	}
	return raw, true
}

func (r *Router) handleNotifications(c *gin.Context) {
	recs, err := r.Audit.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": toRecordViews(recs)})
}

func (r *Router) handleDegraded(c *gin.Context) {
	recs, err := r.Audit.RecentDegraded(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": toRecordViews(recs)})
}

func (r *Router) handleStats(c *gin.Context) {
	counts, err := r.Audit.CountByKind(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}

type recordView struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Symbol    string          `json:"symbol,omitempty"`
	Body      string          `json:"body"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Degraded  bool            `json:"degraded"`
	Cause     string          `json:"cause,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func toRecordViews(recs []notifylog.Record) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		view := recordView{
			ID:        rec.ID,
			Kind:      rec.Kind,
			Symbol:    rec.Symbol,
			Body:      rec.Body,
			Degraded:  rec.Degraded,
			Cause:     rec.Cause,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if len(rec.Payload) > 0 {
			view.Payload = json.RawMessage(rec.Payload)
		}
		out = append(out, view)
	}
	return out
}
