package config

import "strings"

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultAppHTTPAddr       = ":9992"
	defaultAppLogPath        = "/data/logs/valuecell-notify.log"
	defaultDisplayTimezone   = "UTC"
	defaultAgentLabel        = "AutoTrading"
	defaultAgentModel        = "default"
	defaultNotificationsPath = "/data/db/notifications.db"
	defaultPortfolioPath     = "/data/db/portfolio.db"
	defaultChartWidth        = 1200
	defaultChartHeight       = 520
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Display.applyDefaults(keys)
	c.Agent.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DisplayConfig) applyDefaults(keys keySet) {
	if d == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("display.timezone", &d.Timezone, defaultDisplayTimezone),
	)
}

func (a *AgentConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("agent.label", &a.Label, defaultAgentLabel),
		stringFieldDefault("agent.model", &a.Model, defaultAgentModel),
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("notify.validate_payloads", &n.ValidatePayloads, true),
	)
	if n.ThrottleSeconds == nil {
		n.ThrottleSeconds = make(map[string]int)
	}
	for kind, secs := range n.ThrottleSeconds {
		if secs < 0 {
			n.ThrottleSeconds[kind] = 0
		}
	}
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.notifications_path", &s.NotificationsPath, defaultNotificationsPath),
		stringFieldDefault("store.portfolio_path", &s.PortfolioPath, defaultPortfolioPath),
	)
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("chart.enabled", &c.Enabled, true),
		fieldDefault{
			key:   "chart.width",
			need:  func() bool { return c.Width <= 0 },
			apply: func() { c.Width = defaultChartWidth },
		},
		fieldDefault{
			key:   "chart.height",
			need:  func() bool { return c.Height <= 0 },
			apply: func() { c.Height = defaultChartHeight },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
