package types

import "github.com/shopspring/decimal"

// IndicatorBundle 汇总一次行情分析可用的技术指标。
// ClosePrice 必填；其余指针字段为 nil 表示上游未提供，
// 渲染时整行跳过，绝不伪造零值。
type IndicatorBundle struct {
	ClosePrice decimal.Decimal

	MACD       *decimal.Decimal
	MACDSignal *decimal.Decimal
	RSI        *decimal.Decimal
	EMA12      *decimal.Decimal
	EMA26      *decimal.Decimal
	BBUpper    *decimal.Decimal
	BBLower    *decimal.Decimal
}

// Position 是某个标的当前的持仓事实。
// Quantity 带符号，空头为负；展示时取绝对值。
type Position struct {
	Symbol     string
	TradeType  TradeType
	EntryPrice decimal.Decimal
	Quantity   decimal.Decimal
}

// AnalysisRequest 携带渲染一条行情分析所需的全部输入。
type AnalysisRequest struct {
	Symbol        string
	Indicators    IndicatorBundle
	Decision      Decision
	TradeType     TradeType
	Reasoning     string
	OpenPositions map[string]Position
}
