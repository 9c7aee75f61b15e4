package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/henryliu8/valuecell/internal/chart"
	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/types"
)

const portfolioFallback = "Portfolio update failed"

// PortfolioFormatter 渲染资金快照通知并产出图表数据载荷。
type PortfolioFormatter struct {
	ts    *Renderer
	clock Clock
}

func NewPortfolioFormatter(ts *Renderer, clock Clock) *PortfolioFormatter {
	if clock == nil {
		clock = SystemClock()
	}
	return &PortfolioFormatter{ts: ts, clock: clock}
}

// FormatPortfolio 渲染快照文本，同时把当前净值追加进 history
// 并构造图表载荷 JSON。history 由调用方串行持有，这里只追加。
// 失败时返回兜底 Result 和 nil 载荷。
// snap.SessionID 仅作关联透传，不会出现在任何输出里。
func (f *PortfolioFormatter) FormatPortfolio(snap types.PortfolioSnapshot, history *types.PortfolioHistory) (Result, []byte) {
	if history == nil {
		err := errors.New("portfolio history is nil")
		logger.Errorf("Failed to format portfolio notification: %v", err)
		return degraded(portfolioFallback, err), nil
	}

	now := f.clock.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	history.Append(types.PortfolioPoint{Timestamp: stamp, Value: snap.Value})

	payload := chart.PortfolioPayload(snap.ModelLabel, stamp, snap.Value.InexactFloat64())
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("Failed to format portfolio notification: %v", err)
		return degraded(portfolioFallback, err), nil
	}

	text := fmt.Sprintf(
		"💰 Portfolio Update\n"+
			"Time: %s\n"+
			"Total Value: %s\n"+
			"Open Positions: %d\n"+
			"Available Capital: %s",
		f.ts.Render(now, LayoutClock, true),
		money(snap.Value),
		snap.OpenPositions,
		money(snap.AvailableCapital),
	)
	return rendered(text), raw
}
