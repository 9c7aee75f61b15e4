package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henryliu8/valuecell/internal/timezone"
	"github.com/henryliu8/valuecell/internal/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func durPtr(d time.Duration) *time.Duration {
	return &d
}

func newTradeFormatter() *TradeFormatter {
	return NewTradeFormatter(NewRenderer(timezone.NewStatic("UTC")))
}

func openedRecord() types.TradeRecord {
	return types.TradeRecord{
		Symbol:     "BTC",
		Action:     types.ActionOpened,
		TradeType:  types.TradeLong,
		Timestamp:  time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		EntryPrice: dec("50000.00"),
		Quantity:   dec("0.5"),
		Notional:   dec("25000.00"),
	}
}

func closedRecord() types.TradeRecord {
	rec := openedRecord()
	rec.Action = types.ActionClosed
	rec.ExitPrice = decPtr("52000.00")
	rec.ExitNotional = decPtr("26000.00")
	rec.HoldingTime = durPtr(5400 * time.Second)
	rec.PnL = decPtr("1000.00")
	return rec
}

func TestFormatTradeOpened(t *testing.T) {
	res := newTradeFormatter().FormatTrade(openedRecord(), "Momentum")
	require.False(t, res.Degraded)

	assert.Contains(t, res.Text, "Momentum")
	assert.Contains(t, res.Text, "long")
	assert.Contains(t, res.Text, "BTC")
	assert.Contains(t, res.Text, "03/15, 02:30 PM")
	assert.Contains(t, res.Text, "$50,000.00")
	assert.Contains(t, res.Text, "0.5000")
	assert.Contains(t, res.Text, "$25,000.00")
	assert.NotContains(t, res.Text, "Holding time")
}

func TestFormatTradeClosed(t *testing.T) {
	res := newTradeFormatter().FormatTrade(closedRecord(), "Momentum")
	require.False(t, res.Degraded)

	assert.Contains(t, res.Text, "$50,000.00")
	assert.Contains(t, res.Text, "$52,000.00")
	assert.Contains(t, res.Text, "$26,000.00")
	assert.Contains(t, res.Text, "1H 30M")
	assert.Contains(t, res.Text, "+$1,000.00")
	assert.Contains(t, res.Text, "🟢")
}

func TestFormatTradePnLSign(t *testing.T) {
	t.Run("zero pnl counts as gain", func(t *testing.T) {
		rec := closedRecord()
		rec.PnL = decPtr("0")
		res := newTradeFormatter().FormatTrade(rec, "")
		require.False(t, res.Degraded)
		assert.Contains(t, res.Text, "+$0.00")
		assert.Contains(t, res.Text, "🟢")
	})

	t.Run("negative pnl drops the plus", func(t *testing.T) {
		rec := closedRecord()
		rec.PnL = decPtr("-0.01")
		res := newTradeFormatter().FormatTrade(rec, "")
		require.False(t, res.Degraded)
		assert.NotContains(t, res.Text, "+$")
		assert.Contains(t, res.Text, "🔴")
	})
}

func TestFormatTradeHoldingTimeFloors(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{59, "0H 0M"},
		{60, "0H 1M"},
		{3599, "0H 59M"},
		{3600, "1H 0M"},
		{5400, "1H 30M"},
		{90061, "25H 1M"},
	}
	f := newTradeFormatter()
	for _, tc := range cases {
		rec := closedRecord()
		rec.HoldingTime = durPtr(time.Duration(tc.seconds) * time.Second)
		res := f.FormatTrade(rec, "")
		assert.Contains(t, res.Text, tc.want, "seconds=%d", tc.seconds)
	}
}

func TestFormatTradeDegradesOnMalformedRecord(t *testing.T) {
	f := newTradeFormatter()

	t.Run("closed trade missing exit price", func(t *testing.T) {
		rec := closedRecord()
		rec.ExitPrice = nil
		res := f.FormatTrade(rec, "")
		assert.True(t, res.Degraded)
		assert.Equal(t, "Trade executed", res.Text)
		assert.Error(t, res.Cause)
	})

	t.Run("missing entry price", func(t *testing.T) {
		rec := closedRecord()
		rec.EntryPrice = decimal.Decimal{}
		res := f.FormatTrade(rec, "")
		assert.True(t, res.Degraded)
		assert.Equal(t, "Trade executed", res.Text)
	})

	t.Run("empty symbol", func(t *testing.T) {
		rec := openedRecord()
		rec.Symbol = "  "
		res := f.FormatTrade(rec, "")
		assert.True(t, res.Degraded)
		assert.Equal(t, "Trade executed", res.Text)
	})

	t.Run("unknown action", func(t *testing.T) {
		rec := openedRecord()
		rec.Action = "liquidated"
		res := f.FormatTrade(rec, "")
		assert.True(t, res.Degraded)
	})

	t.Run("negative holding time", func(t *testing.T) {
		rec := closedRecord()
		rec.HoldingTime = durPtr(-time.Minute)
		res := f.FormatTrade(rec, "")
		assert.True(t, res.Degraded)
	})
}

func TestFormatTradeDefaultAgentLabel(t *testing.T) {
	res := newTradeFormatter().FormatTrade(openedRecord(), "")
	require.False(t, res.Degraded)
	assert.Contains(t, res.Text, DefaultAgentLabel)
}
