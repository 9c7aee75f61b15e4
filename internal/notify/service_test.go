package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henryliu8/valuecell/internal/gateway/notifier"
	"github.com/henryliu8/valuecell/internal/render"
	"github.com/henryliu8/valuecell/internal/store/notifylog"
	"github.com/henryliu8/valuecell/internal/store/portfolio"
	"github.com/henryliu8/valuecell/internal/timezone"
	"github.com/henryliu8/valuecell/internal/types"
)

type fakeAudit struct {
	mu      sync.Mutex
	records []notifylog.Record
	fail    error
}

func (f *fakeAudit) Insert(_ context.Context, rec notifylog.Record) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
	return nil
}

type fakePoints struct {
	mu     sync.Mutex
	points []portfolio.Point
	fail   error
}

func (f *fakePoints) Insert(_ context.Context, p portfolio.Point) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	f.points = append(f.points, p)
	f.mu.Unlock()
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent map[string][]string
	fail error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, kind, text string) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[kind] = append(f.sent[kind], text)
	f.mu.Unlock()
	return nil
}

type testClock struct{ t time.Time }

func (c testClock) Now() time.Time { return c.t }

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T, audit *fakeAudit, points *fakePoints, dispatcher *fakeDispatcher) *Service {
	t.Helper()
	renderer := render.NewRenderer(timezone.NewStatic("UTC"))
	clock := testClock{t: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)}
	svc, err := NewService(Options{
		Trades:           render.NewTradeFormatter(renderer),
		Portfolios:       render.NewPortfolioFormatter(renderer, clock),
		Analyses:         render.NewAnalysisFormatter(renderer, clock),
		AgentLabel:       "AutoTrading",
		Audit:            audit,
		Points:           points,
		Dispatcher:       dispatcher,
		ValidatePayloads: true,
	})
	require.NoError(t, err)
	return svc
}

func openedTrade() types.TradeRecord {
	return types.TradeRecord{
		Symbol:     "BTC",
		Action:     types.ActionOpened,
		TradeType:  types.TradeLong,
		Timestamp:  time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC),
		EntryPrice: mustDec("50000"),
		Quantity:   mustDec("0.5"),
		Notional:   mustDec("25000"),
	}
}

func TestServicePushTrade(t *testing.T) {
	audit := &fakeAudit{}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, audit, &fakePoints{}, dispatcher)

	res, err := svc.PushTrade(context.Background(), openedTrade(), "")
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Contains(t, res.Text, "AutoTrading")

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, notifier.KindTrade, rec.Kind)
	assert.Equal(t, "BTC", rec.Symbol)
	assert.False(t, rec.Degraded)

	require.Len(t, dispatcher.sent[notifier.KindTrade], 1)
	assert.Equal(t, res.Text, dispatcher.sent[notifier.KindTrade][0])
}

func TestServicePushTradeDegradedStillAudited(t *testing.T) {
	audit := &fakeAudit{}
	svc := newTestService(t, audit, &fakePoints{}, &fakeDispatcher{})

	rec := openedTrade()
	rec.Symbol = ""
	res, err := svc.PushTrade(context.Background(), rec, "")
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "Trade executed", res.Text)

	require.Len(t, audit.records, 1)
	assert.True(t, audit.records[0].Degraded)
	assert.NotEmpty(t, audit.records[0].Cause)
}

func TestServicePushPortfolio(t *testing.T) {
	audit := &fakeAudit{}
	points := &fakePoints{}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, audit, points, dispatcher)

	snap := types.PortfolioSnapshot{
		Value:            mustDec("105230.50"),
		OpenPositions:    2,
		AvailableCapital: mustDec("42000"),
		ModelLabel:       "gpt-4o",
	}
	res, payload, err := svc.PushPortfolio(context.Background(), snap)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.NotNil(t, payload)

	require.Len(t, points.points, 1)
	assert.Equal(t, "gpt-4o", points.points[0].Model)
	assert.InDelta(t, 105230.50, points.points[0].Value, 0.001)

	require.Len(t, svc.History(), 1)

	require.Len(t, audit.records, 1)
	assert.Equal(t, notifier.KindPortfolio, audit.records[0].Kind)
	assert.NotEmpty(t, audit.records[0].Payload)
}

func TestServicePushPortfolioPointStoreFailure(t *testing.T) {
	points := &fakePoints{fail: errors.New("disk full")}
	svc := newTestService(t, &fakeAudit{}, points, &fakeDispatcher{})

	snap := types.PortfolioSnapshot{Value: mustDec("1"), AvailableCapital: mustDec("1"), ModelLabel: "m"}
	res, payload, err := svc.PushPortfolio(context.Background(), snap)
	// 渲染结果依旧可用，落库失败以服务层错误返回。
	require.Error(t, err)
	assert.False(t, res.Degraded)
	assert.NotNil(t, payload)
	assert.Len(t, svc.History(), 1)
}

func TestServicePushAnalysis(t *testing.T) {
	audit := &fakeAudit{}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, audit, &fakePoints{}, dispatcher)

	res, err := svc.PushAnalysis(context.Background(), types.AnalysisRequest{
		Symbol:     "ETH",
		Decision:   types.DecisionHold,
		Indicators: types.IndicatorBundle{ClosePrice: mustDec("3000")},
	})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, dispatcher.sent[notifier.KindAnalysis], 1)
	assert.Equal(t, "ETH", audit.records[0].Symbol)
}

func TestServiceDispatchFailureDoesNotEatResult(t *testing.T) {
	dispatcher := &fakeDispatcher{fail: errors.New("channel down")}
	svc := newTestService(t, &fakeAudit{}, &fakePoints{}, dispatcher)

	res, err := svc.PushTrade(context.Background(), openedTrade(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel down")
	assert.False(t, res.Degraded)
	assert.NotEmpty(t, res.Text)
}

func TestServiceNilCollaboratorsAllowed(t *testing.T) {
	renderer := render.NewRenderer(timezone.NewStatic("UTC"))
	clock := testClock{t: time.Now()}
	svc, err := NewService(Options{
		Trades:     render.NewTradeFormatter(renderer),
		Portfolios: render.NewPortfolioFormatter(renderer, clock),
		Analyses:   render.NewAnalysisFormatter(renderer, clock),
	})
	require.NoError(t, err)

	res, err := svc.PushTrade(context.Background(), openedTrade(), "agent")
	require.NoError(t, err)
	assert.False(t, res.Degraded)
}

func TestServiceRequiresFormatters(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}
