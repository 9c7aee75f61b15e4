// Package notify 串起渲染、审计、指标与投递：
// 事件进来 → 渲染成文本（永不失败）→ 落审计库 → 更新指标 → 扇出到通知通道。
// 渲染退化不影响投递，存储或投递的问题记日志并作为服务层错误返回，
// 调用方拿到的 Result 始终可用。
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/henryliu8/valuecell/internal/chart"
	"github.com/henryliu8/valuecell/internal/gateway/notifier"
	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/render"
	"github.com/henryliu8/valuecell/internal/store/notifylog"
	"github.com/henryliu8/valuecell/internal/store/portfolio"
	"github.com/henryliu8/valuecell/internal/types"
)

// AuditStore 落档通知审计记录。
type AuditStore interface {
	Insert(ctx context.Context, rec notifylog.Record) error
}

// PointStore 落档资金点位。
type PointStore interface {
	Insert(ctx context.Context, p portfolio.Point) error
}

// TextDispatcher 把文本按类别投递出去。
type TextDispatcher interface {
	Dispatch(ctx context.Context, kind, text string) error
}

// Options 组装一个通知服务。除 formatter 外的协作方都允许为 nil，
// nil 即关闭对应环节（联调、测试常用）。
type Options struct {
	Trades     *render.TradeFormatter
	Portfolios *render.PortfolioFormatter
	Analyses   *render.AnalysisFormatter

	AgentLabel string
	Audit      AuditStore
	Points     PointStore
	Dispatcher TextDispatcher

	// ValidatePayloads 打开后用 JSON Schema 校验图表载荷，
	// 违反契约只记日志和指标，不影响本次调用。
	ValidatePayloads bool
}

// Service 是通知管线的对外入口。
type Service struct {
	opts Options

	// history 是滚动资金序列的唯一持有方，append 串行化在这把锁下。
	historyMu sync.Mutex
	history   *types.PortfolioHistory
}

func NewService(opts Options) (*Service, error) {
	if opts.Trades == nil || opts.Portfolios == nil || opts.Analyses == nil {
		return nil, errors.New("notify service requires all three formatters")
	}
	return &Service{opts: opts, history: types.NewPortfolioHistory()}, nil
}

// History 返回资金历史的当前副本。
func (s *Service) History() []types.PortfolioPoint {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.history.Points()
}

// PushTrade 渲染并投递一条开平仓通知。
func (s *Service) PushTrade(ctx context.Context, rec types.TradeRecord, agentLabel string) (render.Result, error) {
	if agentLabel == "" {
		agentLabel = s.opts.AgentLabel
	}
	res := s.opts.Trades.FormatTrade(rec, agentLabel)
	err := s.finish(ctx, notifier.KindTrade, rec.Symbol, res, nil)
	return res, err
}

// PushPortfolio 渲染资金快照，追加滚动历史，落点位库并投递。
func (s *Service) PushPortfolio(ctx context.Context, snap types.PortfolioSnapshot) (render.Result, []byte, error) {
	s.historyMu.Lock()
	res, payload := s.opts.Portfolios.FormatPortfolio(snap, s.history)
	point, hasPoint := s.history.Last()
	s.historyMu.Unlock()

	var errs []error
	if len(payload) > 0 {
		s.validatePayload(payload)
	}
	if !res.Degraded && hasPoint && s.opts.Points != nil {
		ts, err := time.Parse(time.RFC3339Nano, point.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		if err := s.opts.Points.Insert(ctx, portfolio.Point{
			Time:  ts,
			Model: snap.ModelLabel,
			Value: point.Value.InexactFloat64(),
		}); err != nil {
			logger.Errorf("资金点位落库失败: %v", err)
			errs = append(errs, fmt.Errorf("persist portfolio point: %w", err))
		}
	}
	if !res.Degraded {
		observePortfolioValue(snap.Value.InexactFloat64())
	}
	if err := s.finish(ctx, notifier.KindPortfolio, "", res, payload); err != nil {
		errs = append(errs, err)
	}
	return res, payload, errors.Join(errs...)
}

// PushAnalysis 渲染并投递一条行情分析通知。
func (s *Service) PushAnalysis(ctx context.Context, req types.AnalysisRequest) (render.Result, error) {
	res := s.opts.Analyses.FormatAnalysis(req)
	err := s.finish(ctx, notifier.KindAnalysis, req.Symbol, res, nil)
	return res, err
}

// finish 是三类通知共用的收尾：指标、审计、投递。
func (s *Service) finish(ctx context.Context, kind, symbol string, res render.Result, payload []byte) error {
	countNotification(kind, res.Degraded)
	if res.Degraded {
		logger.Warnf("%s 通知退化为兜底文案: %v", kind, res.Cause)
	}

	var errs []error
	if s.opts.Audit != nil {
		rec := notifylog.Record{
			ID:       uuid.NewString(),
			Kind:     kind,
			Symbol:   strings.TrimSpace(symbol),
			Body:     res.Text,
			Payload:  payload,
			Degraded: res.Degraded,
		}
		if res.Cause != nil {
			rec.Cause = res.Cause.Error()
		}
		if err := s.opts.Audit.Insert(ctx, rec); err != nil {
			logger.Errorf("通知审计落库失败 kind=%s: %v", kind, err)
			errs = append(errs, fmt.Errorf("audit insert: %w", err))
		}
	}
	if s.opts.Dispatcher != nil {
		if err := s.opts.Dispatcher.Dispatch(ctx, kind, res.Text); err != nil {
			countDispatchError(kind)
			errs = append(errs, fmt.Errorf("dispatch: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) validatePayload(payload []byte) {
	if !s.opts.ValidatePayloads {
		return
	}
	if err := chart.ValidatePayload(payload); err != nil {
		countPayloadViolation()
		logger.Errorf("图表载荷违反契约: %v", err)
	}
}
