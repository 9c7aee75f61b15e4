package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction 表示一笔交易事件的生命周期阶段。
type TradeAction string

const (
	ActionOpened TradeAction = "opened"
	ActionClosed TradeAction = "closed"
)

func (a TradeAction) Valid() bool {
	return a == ActionOpened || a == ActionClosed
}

// TradeType 表示持仓方向。
type TradeType string

const (
	TradeLong  TradeType = "long"
	TradeShort TradeType = "short"
)

func (t TradeType) Valid() bool {
	return t == TradeLong || t == TradeShort
}

// Upper 返回用于展示的大写形式（LONG / SHORT）。
func (t TradeType) Upper() string {
	return strings.ToUpper(string(t))
}

// Decision 表示策略给出的操作建议。
type Decision string

const (
	DecisionBuy  Decision = "buy"
	DecisionSell Decision = "sell"
	DecisionHold Decision = "hold"
)

func (d Decision) Valid() bool {
	return d == DecisionBuy || d == DecisionSell || d == DecisionHold
}

func (d Decision) Upper() string {
	return strings.ToUpper(string(d))
}

// TradeRecord 描述一笔已执行交易的完整事实。
// 开仓事件只填公共字段；平仓事件额外携带指针字段，
// 指针为 nil 表示上游没有提供该值，而不是数值为零。
type TradeRecord struct {
	Symbol     string
	Action     TradeAction
	TradeType  TradeType
	Timestamp  time.Time
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
	Notional   decimal.Decimal

	// 以下字段仅平仓事件使用
	ExitPrice    *decimal.Decimal
	ExitNotional *decimal.Decimal
	HoldingTime  *time.Duration
	PnL          *decimal.Decimal
}
