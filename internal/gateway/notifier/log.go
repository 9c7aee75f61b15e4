package notifier

import "github.com/henryliu8/valuecell/internal/logger"

// LogNotifier 把通知写进运行日志，用于没有外部通道的部署和联调。
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendText(text string) error {
	logger.InfoBlock(text)
	return nil
}
