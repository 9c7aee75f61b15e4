package config

import "strings"

// Config 是 valuecell 通知服务的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Display DisplayConfig `toml:"display"`
	Agent   AgentConfig   `toml:"agent"`
	Notify  NotifyConfig  `toml:"notify"`
	Store   StoreConfig   `toml:"store"`
	Chart   ChartConfig   `toml:"chart"`
}

type AppConfig struct {
	Env       string `toml:"env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	HTTPAddr  string `toml:"http_addr"`
	LogPath   string `toml:"log_path"`
}

// DisplayConfig 决定通知里时间的展示时区。
// 时区配置本身的存储在别的系统，这里只消费一个 IANA 标识。
type DisplayConfig struct {
	Timezone string `toml:"timezone"`
}

// AgentConfig 描述消息署名与图表载荷用的模型标签。
type AgentConfig struct {
	Label string `toml:"label"`
	Model string `toml:"model"`
}

type NotifyConfig struct {
	Telegram         TelegramConfig `toml:"telegram"`
	ChannelsPath     string         `toml:"channels_path"`
	ThrottleSeconds  map[string]int `toml:"throttle_seconds"`
	ValidatePayloads bool           `toml:"validate_payloads"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type StoreConfig struct {
	NotificationsPath string `toml:"notifications_path"`
	PortfolioPath     string `toml:"portfolio_path"`
}

type ChartConfig struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
	Height  int  `toml:"height"`
}

// HasChannelsFile 判断是否启用 channels.yaml 驱动的通道注册表。
func (n NotifyConfig) HasChannelsFile() bool {
	return strings.TrimSpace(n.ChannelsPath) != ""
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
