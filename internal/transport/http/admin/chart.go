package adminhttp

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/henryliu8/valuecell/internal/chart"
	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/store/portfolio"
)

// PointReader 暴露点位库的区间查询。
type PointReader interface {
	Range(ctx context.Context, model string, from, to time.Time) ([]portfolio.Point, error)
}

// ChartHandler 渲染资金曲线页面与截图。
type ChartHandler struct {
	Points PointReader
	Model  string
	Width  int
	Height int
}

// 默认回看窗口。点位每次资金快照落一个，7 天足够画出趋势。
const defaultChartLookback = 7 * 24 * time.Hour

func (h *ChartHandler) renderHTML(ctx context.Context, model string) ([]byte, error) {
	if model == "" {
		model = h.Model
	}
	from := time.Now().Add(-defaultChartLookback)
	points, err := h.Points.Range(ctx, model, from, time.Time{})
	if err != nil {
		return nil, err
	}
	history := make([]chart.HistoryPoint, 0, len(points))
	for _, p := range points {
		history = append(history, chart.HistoryPoint{Time: p.Time, Value: p.Value})
	}
	var buf bytes.Buffer
	if err := chart.RenderHistoryHTML(&buf, "Portfolio Value", "Portfolio", history, h.Width, h.Height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *ChartHandler) handleChartHTML(c *gin.Context) {
	html, err := h.renderHTML(c.Request.Context(), c.Query("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *ChartHandler) handleChartPNG(c *gin.Context) {
	ctx := c.Request.Context()
	if err := chart.EnsureHeadlessAvailable(ctx); err != nil {
		logger.Warnf("无头浏览器不可用，chart.png 降级: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "headless browser unavailable"})
		return
	}
	html, err := h.renderHTML(ctx, c.Query("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	png, err := chart.RenderPNG(ctx, html, h.Width, h.Height)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
