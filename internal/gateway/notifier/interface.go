// Package notifier 把渲染好的通知文本投递到外部通道。
package notifier

// TextNotifier 是通道的最小投递接口。
// 保持足够小，调用方无需 import 具体实现（如 Telegram）。
type TextNotifier interface {
	SendText(text string) error
}

// 通知类别。路由、限流、指标、审计都用同一套取值。
const (
	KindTrade     = "trade"
	KindPortfolio = "portfolio"
	KindAnalysis  = "analysis"
)

// KnownKind 判断 kind 是否是内建通知类别。
func KnownKind(kind string) bool {
	switch kind {
	case KindTrade, KindPortfolio, KindAnalysis:
		return true
	}
	return false
}
