package types

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// 上游事件多半来自 LLM 或脚本拼出来的 JSON，字段类型并不可靠。
// 这里只在 JSON 本身不合法时报错；字段级别的缺失和类型错误
// 一律宽容处理，留给渲染层按兜底语义降级。

var errInvalidJSON = errors.New("事件 JSON 格式无效")

// TradeRecordFromJSON 解析交易事件。数字字段兼容字符串形式，
// 时间字段兼容 RFC3339、无时区的本地格式以及 Unix 秒。
func TradeRecordFromJSON(raw []byte) (TradeRecord, error) {
	root, err := parseObject(raw)
	if err != nil {
		return TradeRecord{}, err
	}

	rec := TradeRecord{
		Symbol:    strings.TrimSpace(root.Get("symbol").String()),
		Action:    TradeAction(lowerString(root.Get("action"))),
		TradeType: TradeType(lowerString(firstOf(root, "trade_type", "tradeType"))),
	}
	if ts, ok := instantValue(firstOf(root, "timestamp", "time")); ok {
		rec.Timestamp = ts
	}
	if d, ok := decimalValue(firstOf(root, "entry_price", "entryPrice", "price")); ok {
		rec.EntryPrice = d
	}
	if d, ok := decimalValue(root.Get("quantity")); ok {
		rec.Quantity = d
	}
	if d, ok := decimalValue(firstOf(root, "notional", "entry_notional")); ok {
		rec.Notional = d
	}
	rec.ExitPrice = decimalPtr(firstOf(root, "exit_price", "exitPrice"))
	rec.ExitNotional = decimalPtr(firstOf(root, "exit_notional", "exitNotional"))
	rec.PnL = decimalPtr(firstOf(root, "pnl", "net_pnl"))
	if sec := firstOf(root, "holding_seconds", "holding_time"); sec.Exists() {
		if d, ok := decimalValue(sec); ok {
			dur := time.Duration(d.InexactFloat64() * float64(time.Second))
			rec.HoldingTime = &dur
		}
	}
	return rec, nil
}

// PortfolioSnapshotFromJSON 解析资金快照事件。
func PortfolioSnapshotFromJSON(raw []byte) (PortfolioSnapshot, error) {
	root, err := parseObject(raw)
	if err != nil {
		return PortfolioSnapshot{}, err
	}

	snap := PortfolioSnapshot{
		OpenPositions: int(firstOf(root, "open_positions", "openPositions").Int()),
		ModelLabel:    strings.TrimSpace(firstOf(root, "model", "agent_model").String()),
		SessionID:     strings.TrimSpace(firstOf(root, "session_id", "sessionId").String()),
	}
	if d, ok := decimalValue(firstOf(root, "value", "total_value")); ok {
		snap.Value = d
	}
	if d, ok := decimalValue(firstOf(root, "available_capital", "availableCapital", "cash")); ok {
		snap.AvailableCapital = d
	}
	return snap, nil
}

// AnalysisRequestFromJSON 解析行情分析事件。
// open_positions 同时接受数组（元素带 symbol 字段）
// 和对象（键即 symbol）两种形态。
func AnalysisRequestFromJSON(raw []byte) (AnalysisRequest, error) {
	root, err := parseObject(raw)
	if err != nil {
		return AnalysisRequest{}, err
	}

	req := AnalysisRequest{
		Symbol:    strings.TrimSpace(root.Get("symbol").String()),
		Decision:  Decision(lowerString(firstOf(root, "decision", "action"))),
		TradeType: TradeType(lowerString(firstOf(root, "trade_type", "tradeType"))),
		Reasoning: firstOf(root, "reasoning", "ai_reasoning").String(),
	}
	req.Indicators = indicatorsFrom(root.Get("indicators"))
	req.OpenPositions = positionsFrom(firstOf(root, "open_positions", "positions"))
	return req, nil
}

func indicatorsFrom(res gjson.Result) IndicatorBundle {
	var ind IndicatorBundle
	if !res.Exists() || !res.IsObject() {
		return ind
	}
	if d, ok := decimalValue(firstOf(res, "close_price", "closePrice", "close")); ok {
		ind.ClosePrice = d
	}
	ind.MACD = decimalPtr(res.Get("macd"))
	ind.MACDSignal = decimalPtr(firstOf(res, "macd_signal", "macdSignal"))
	ind.RSI = decimalPtr(res.Get("rsi"))
	ind.EMA12 = decimalPtr(firstOf(res, "ema_12", "ema12"))
	ind.EMA26 = decimalPtr(firstOf(res, "ema_26", "ema26"))
	ind.BBUpper = decimalPtr(firstOf(res, "bb_upper", "bbUpper"))
	ind.BBLower = decimalPtr(firstOf(res, "bb_lower", "bbLower"))
	return ind
}

func positionsFrom(res gjson.Result) map[string]Position {
	if !res.Exists() {
		return nil
	}
	out := make(map[string]Position)
	put := func(key string, item gjson.Result) {
		if !item.IsObject() {
			return
		}
		pos := Position{
			Symbol:    strings.TrimSpace(item.Get("symbol").String()),
			TradeType: TradeType(lowerString(firstOf(item, "trade_type", "tradeType"))),
		}
		if pos.Symbol == "" {
			pos.Symbol = key
		}
		if pos.Symbol == "" {
			return
		}
		if d, ok := decimalValue(firstOf(item, "entry_price", "entryPrice")); ok {
			pos.EntryPrice = d
		}
		if d, ok := decimalValue(item.Get("quantity")); ok {
			pos.Quantity = d
		}
		out[pos.Symbol] = pos
	}
	switch {
	case res.IsArray():
		res.ForEach(func(_, item gjson.Result) bool {
			put("", item)
			return true
		})
	case res.IsObject():
		res.ForEach(func(key, item gjson.Result) bool {
			put(key.String(), item)
			return true
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseObject(raw []byte) (gjson.Result, error) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}, errInvalidJSON
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return gjson.Result{}, errInvalidJSON
	}
	return root, nil
}

func firstOf(root gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := root.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func lowerString(res gjson.Result) string {
	return strings.ToLower(strings.TrimSpace(res.String()))
}

// decimalValue 尽量无损地取出数字：原始数字走字面量解析，
// 字符串先去空白再解析，其余类型视为缺失。
func decimalValue(res gjson.Result) (decimal.Decimal, bool) {
	switch res.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(strings.TrimSpace(res.Raw))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case gjson.String:
		s := strings.TrimSpace(res.Str)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func decimalPtr(res gjson.Result) *decimal.Decimal {
	if d, ok := decimalValue(res); ok {
		return &d
	}
	return nil
}

var instantLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// instantValue 解析事件时间。带时区的走 RFC3339，
// 无时区的按 UTC 处理，纯数字按 Unix 秒处理。
func instantValue(res gjson.Result) (time.Time, bool) {
	if !res.Exists() {
		return time.Time{}, false
	}
	if res.Type == gjson.Number {
		return unixSeconds(res.Float()), true
	}
	s := strings.TrimSpace(res.String())
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return unixSeconds(d.InexactFloat64()), true
	}
	return time.Time{}, false
}

func unixSeconds(v float64) time.Time {
	secs := int64(v)
	nanos := int64((v - float64(secs)) * float64(time.Second))
	return time.Unix(secs, nanos).UTC()
}
