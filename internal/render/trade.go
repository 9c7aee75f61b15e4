package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/types"
)

const tradeFallback = "Trade executed"

// DefaultAgentLabel 在调用方没有给出署名时使用。
const DefaultAgentLabel = "AutoTrading"

const (
	emblemUp   = "🟢"
	emblemDown = "🔴"
	emblemHold = "⏸️"
)

// TradeFormatter 渲染开平仓通知。
type TradeFormatter struct {
	ts *Renderer
}

func NewTradeFormatter(ts *Renderer) *TradeFormatter {
	return &TradeFormatter{ts: ts}
}

// FormatTrade 把一笔交易事件渲染成 Markdown 通知。
// 字段缺失或非法时退化为固定兜底文案，绝不 panic。
func (f *TradeFormatter) FormatTrade(rec types.TradeRecord, agentLabel string) Result {
	if err := validateTrade(rec); err != nil {
		logger.Errorf("Failed to format trade notification: %v", err)
		return degraded(tradeFallback, err)
	}
	if strings.TrimSpace(agentLabel) == "" {
		agentLabel = DefaultAgentLabel
	}
	stamp := f.ts.Render(rec.Timestamp, LayoutClock, false)

	if rec.Action == types.ActionOpened {
		return rendered(fmt.Sprintf(
			"**%s** opened a **%s** position on **%s**!\n\n"+
				"📅 %s\n\n"+
				"**Price:** `%s`\n\n"+
				"**Quantity:** `%s`\n\n"+
				"**Notional:** `%s`",
			agentLabel, rec.TradeType, rec.Symbol,
			stamp,
			money(rec.EntryPrice),
			qty(rec.Quantity),
			money(rec.Notional),
		))
	}

	hours, minutes := splitHoldingTime(*rec.HoldingTime)
	sign, emblem := pnlBadge(*rec.PnL)
	return rendered(fmt.Sprintf(
		"**%s** completed a **%s** trade on **%s**!\n\n"+
			"📅 %s\n\n"+
			"**Price:** `%s` → `%s`\n\n"+
			"**Quantity:** `%s`\n\n"+
			"**Notional:** `%s` → `%s`\n\n"+
			"**Holding time:** `%dH %dM`\n\n"+
			"**Net P&L:** %s **%s%s**",
		agentLabel, rec.TradeType, rec.Symbol,
		stamp,
		money(rec.EntryPrice), money(*rec.ExitPrice),
		qty(rec.Quantity),
		money(rec.Notional), money(*rec.ExitNotional),
		hours, minutes,
		emblem, sign, money(*rec.PnL),
	))
}

func validateTrade(rec types.TradeRecord) error {
	if strings.TrimSpace(rec.Symbol) == "" {
		return fmt.Errorf("trade record missing symbol")
	}
	if !rec.Action.Valid() {
		return fmt.Errorf("unknown trade action %q", rec.Action)
	}
	if !rec.TradeType.Valid() {
		return fmt.Errorf("unknown trade type %q", rec.TradeType)
	}
	if rec.Timestamp.IsZero() {
		return fmt.Errorf("trade record missing timestamp")
	}
	if rec.EntryPrice.Sign() <= 0 {
		return fmt.Errorf("entry price must be positive, got %s", rec.EntryPrice)
	}
	if rec.Quantity.Sign() <= 0 {
		return fmt.Errorf("quantity must be positive, got %s", rec.Quantity)
	}
	if rec.Notional.Sign() <= 0 {
		return fmt.Errorf("notional must be positive, got %s", rec.Notional)
	}
	if rec.Action == types.ActionClosed {
		if rec.ExitPrice == nil || rec.ExitPrice.Sign() <= 0 {
			return fmt.Errorf("closed trade missing exit price")
		}
		if rec.ExitNotional == nil || rec.ExitNotional.Sign() <= 0 {
			return fmt.Errorf("closed trade missing exit notional")
		}
		if rec.HoldingTime == nil || *rec.HoldingTime < 0 {
			return fmt.Errorf("closed trade missing holding time")
		}
		if rec.PnL == nil {
			return fmt.Errorf("closed trade missing pnl")
		}
	}
	return nil
}

// splitHoldingTime 向下取整拆成小时与分钟，89 分钟即 1H 29M。
func splitHoldingTime(d time.Duration) (int64, int64) {
	secs := int64(d / time.Second)
	return secs / 3600, (secs % 3600) / 60
}

// pnlBadge 返回符号前缀与涨跌标记。零按盈利处理。
func pnlBadge(pnl decimal.Decimal) (string, string) {
	if pnl.Sign() >= 0 {
		return "+", emblemUp
	}
	return "", emblemDown
}
