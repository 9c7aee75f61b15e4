package types

import "github.com/shopspring/decimal"

// PortfolioSnapshot 是一次资金状态快照。
// SessionID 仅作关联标识透传，渲染内容不会包含它。
type PortfolioSnapshot struct {
	Value            decimal.Decimal
	OpenPositions    int
	AvailableCapital decimal.Decimal
	ModelLabel       string
	SessionID        string
}

// PortfolioPoint 是资金历史序列中的一个点位。
// Timestamp 统一使用 ISO-8601（UTC）。
type PortfolioPoint struct {
	Timestamp string          `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// PortfolioHistory 是跨多次快照累积的资金序列。
// 单写者语义：由持有方串行调用，内部不加锁。
type PortfolioHistory struct {
	points []PortfolioPoint
}

func NewPortfolioHistory() *PortfolioHistory {
	return &PortfolioHistory{}
}

// Append 追加一个点位，既有内容保持原顺序不变。
func (h *PortfolioHistory) Append(p PortfolioPoint) {
	if h == nil {
		return
	}
	h.points = append(h.points, p)
}

// Points 返回当前序列的副本。
func (h *PortfolioHistory) Points() []PortfolioPoint {
	if h == nil || len(h.points) == 0 {
		return nil
	}
	out := make([]PortfolioPoint, len(h.points))
	copy(out, h.points)
	return out
}

// Last 返回最近追加的点位。
func (h *PortfolioHistory) Last() (PortfolioPoint, bool) {
	if h == nil || len(h.points) == 0 {
		return PortfolioPoint{}, false
	}
	return h.points[len(h.points)-1], true
}

func (h *PortfolioHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.points)
}
