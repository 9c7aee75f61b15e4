package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/types"
)

// AnalysisFormatter 渲染行情分析通知。
type AnalysisFormatter struct {
	ts    *Renderer
	clock Clock
}

func NewAnalysisFormatter(ts *Renderer, clock Clock) *AnalysisFormatter {
	if clock == nil {
		clock = SystemClock()
	}
	return &AnalysisFormatter{ts: ts, clock: clock}
}

// FormatAnalysis 渲染市场分析文本。技术指标逐行按可用性取舍，
// 缺失的指标整行跳过，不伪造数值；未知决策只是不配标记，不算失败。
func (f *AnalysisFormatter) FormatAnalysis(req types.AnalysisRequest) Result {
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		err := fmt.Errorf("analysis request missing symbol")
		logger.Errorf("Failed to format market analysis notification: %v", err)
		return degraded(fmt.Sprintf("Market analysis for %s", req.Symbol), err)
	}
	ind := req.Indicators
	if ind.ClosePrice.Sign() <= 0 {
		err := fmt.Errorf("close price must be positive, got %s", ind.ClosePrice)
		logger.Errorf("Failed to format market analysis notification: %v", err)
		return degraded(fmt.Sprintf("Market analysis for %s", symbol), err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Market Analysis - %s**\n", symbol)
	fmt.Fprintf(&b, "Time: %s\n\n", f.ts.Render(f.clock.Now().UTC(), LayoutClock, true))
	fmt.Fprintf(&b, "**Current Price:** %s\n", money(ind.ClosePrice))
	fmt.Fprintf(&b, "**Decision:** %s %s", decisionEmblem(req.Decision), req.Decision.Upper())
	if req.Decision != types.DecisionHold && req.TradeType != "" {
		fmt.Fprintf(&b, " (%s)", req.TradeType.Upper())
	}
	b.WriteString("\n\n**Technical Indicators:**\n")
	writeIndicatorLines(&b, ind)
	if strings.TrimSpace(req.Reasoning) != "" {
		fmt.Fprintf(&b, "\n**AI Analysis:**\n%s\n", req.Reasoning)
	}
	writePositionSection(&b, symbol, ind.ClosePrice, req.OpenPositions)
	return rendered(b.String())
}

func writeIndicatorLines(b *strings.Builder, ind types.IndicatorBundle) {
	if ind.MACD != nil && ind.MACDSignal != nil {
		trend := "🔴 Bearish"
		if ind.MACD.GreaterThan(*ind.MACDSignal) {
			trend = "🟢 Bullish"
		}
		fmt.Fprintf(b, "- MACD: %s / Signal: %s (%s)\n",
			ind.MACD.StringFixed(4), ind.MACDSignal.StringFixed(4), trend)
	}
	if ind.RSI != nil {
		fmt.Fprintf(b, "- RSI: %s (%s)\n", ind.RSI.StringFixed(2), rsiState(*ind.RSI))
	}
	if ind.EMA12 != nil && ind.EMA26 != nil {
		trend := "🔴 Bearish"
		if ind.EMA12.GreaterThan(*ind.EMA26) {
			trend = "🟢 Bullish"
		}
		fmt.Fprintf(b, "- EMA 12/26: %s / %s (%s)\n", money(*ind.EMA12), money(*ind.EMA26), trend)
	}
	if ind.BBUpper != nil && ind.BBLower != nil {
		fmt.Fprintf(b, "- Bollinger Bands: %s - %s (%s)\n",
			money(*ind.BBLower), money(*ind.BBUpper), bbState(ind.ClosePrice, *ind.BBLower, *ind.BBUpper))
	}
}

// rsiState 按 30/70 阈值分档，恰好落在阈值上算中性。
func rsiState(rsi decimal.Decimal) string {
	switch {
	case rsi.LessThan(decimal.NewFromInt(30)):
		return "🟢 Oversold"
	case rsi.GreaterThan(decimal.NewFromInt(70)):
		return "🔴 Overbought"
	default:
		return "⚪ Neutral"
	}
}

func bbState(close, lower, upper decimal.Decimal) string {
	switch {
	case close.GreaterThan(upper):
		return "🔴 Above Upper Band"
	case close.LessThan(lower):
		return "🟢 Below Lower Band"
	default:
		return "⚪ Within Bands"
	}
}

func decisionEmblem(d types.Decision) string {
	switch d {
	case types.DecisionBuy:
		return emblemUp
	case types.DecisionSell:
		return emblemDown
	case types.DecisionHold:
		return emblemHold
	default:
		return ""
	}
}

// writePositionSection 追加持仓段。空头的浮动盈亏按反向价差计算，
// 数量展示取绝对值。
func writePositionSection(b *strings.Builder, symbol string, close decimal.Decimal, positions map[string]types.Position) {
	pos, ok := positions[symbol]
	if !ok {
		fmt.Fprintf(b, "\n**Current Position:** No open position for %s\n\n", symbol)
		return
	}
	qtyAbs := pos.Quantity.Abs()
	var pnl decimal.Decimal
	if pos.TradeType == types.TradeShort {
		pnl = pos.EntryPrice.Sub(close).Mul(qtyAbs)
	} else {
		pnl = close.Sub(pos.EntryPrice).Mul(qtyAbs)
	}
	emblem := emblemDown
	if pnl.Sign() >= 0 {
		emblem = emblemUp
	}
	fmt.Fprintf(b, "\n**Current Position:**\n- Type: %s\n- Entry: %s\n- Quantity: %s\n- Unrealized P&L: %s %s\n",
		pos.TradeType.Upper(), money(pos.EntryPrice), qty(qtyAbs), emblem, money(pnl))
}
