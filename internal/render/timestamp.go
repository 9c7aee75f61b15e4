package render

import (
	"time"

	"github.com/henryliu8/valuecell/internal/logger"
	"github.com/henryliu8/valuecell/internal/timezone"
)

// LayoutClock 是通知正文使用的时间样式，例如 "03/15, 02:30 PM"。
const LayoutClock = "01/02, 03:04 PM"

// Renderer 把 UTC 时间换算到展示时区后格式化。
// 时区解析或换算失败时回退 UTC 输出，只记日志不向上报错。
type Renderer struct {
	tz timezone.Provider
}

func NewRenderer(tz timezone.Provider) *Renderer {
	return &Renderer{tz: tz}
}

// Render 按 layout 格式化 t。layout 为空时使用 LayoutClock。
// withZone 为 true 时在尾部追加时区缩写，如 " (CST)"；
// 回退 UTC 的路径不追加缩写。
func (r *Renderer) Render(t time.Time, layout string, withZone bool) string {
	if layout == "" {
		layout = LayoutClock
	}
	utc := t.UTC()
	if r == nil || r.tz == nil {
		return utc.Format(layout)
	}
	zone, err := r.tz.DisplayTimezone()
	if err != nil {
		logger.Warnf("Failed to resolve display timezone: %v, using UTC", err)
		return utc.Format(layout)
	}
	converted, err := r.tz.Convert(utc, "UTC", zone)
	if err != nil {
		logger.Warnf("Failed to convert timezone: %v, using UTC", err)
		return utc.Format(layout)
	}
	out := converted.Format(layout)
	if withZone {
		out += " (" + converted.Format("MST") + ")"
	}
	return out
}
