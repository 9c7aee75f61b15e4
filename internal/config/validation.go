package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Display.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", a.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(a.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (d *DisplayConfig) validate() error {
	zone := strings.TrimSpace(d.Timezone)
	if zone == "" {
		return fmt.Errorf("display.timezone cannot be empty")
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return fmt.Errorf("display.timezone %q is not a valid IANA zone: %w", zone, err)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" {
			return fmt.Errorf("notify.telegram.bot_token required when telegram enabled")
		}
		if strings.TrimSpace(n.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram.chat_id required when telegram enabled")
		}
	}
	return nil
}

func (s *StoreConfig) validate() error {
	if strings.TrimSpace(s.NotificationsPath) == "" {
		return fmt.Errorf("store.notifications_path cannot be empty")
	}
	if strings.TrimSpace(s.PortfolioPath) == "" {
		return fmt.Errorf("store.portfolio_path cannot be empty")
	}
	return nil
}
