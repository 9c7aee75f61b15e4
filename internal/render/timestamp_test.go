package render

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/henryliu8/valuecell/internal/timezone"
)

type failingProvider struct {
	resolveErr error
	convertErr error
}

func (p *failingProvider) DisplayTimezone() (string, error) {
	if p.resolveErr != nil {
		return "", p.resolveErr
	}
	return "America/Los_Angeles", nil
}

func (p *failingProvider) Convert(t time.Time, from, to string) (time.Time, error) {
	if p.convertErr != nil {
		return time.Time{}, p.convertErr
	}
	return t, nil
}

func TestRendererConvertsToDisplayZone(t *testing.T) {
	r := NewRenderer(timezone.NewStatic("America/Los_Angeles"))
	instant := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)

	t.Run("without zone suffix", func(t *testing.T) {
		assert.Equal(t, "01/15, 10:30 AM", r.Render(instant, LayoutClock, false))
	})

	t.Run("with zone suffix", func(t *testing.T) {
		assert.Equal(t, "01/15, 10:30 AM (PST)", r.Render(instant, LayoutClock, true))
	})

	t.Run("naive instant treated as UTC", func(t *testing.T) {
		// 无时区标记的时间在解码边界已按 UTC 解释，这里再过一遍 UTC 归一。
		local := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)
		assert.Equal(t, r.Render(instant, LayoutClock, false), r.Render(local, LayoutClock, false))
	})
}

func TestRendererFallsBackToUTC(t *testing.T) {
	instant := time.Date(2024, 6, 1, 9, 5, 0, 0, time.UTC)

	t.Run("resolve failure", func(t *testing.T) {
		r := NewRenderer(&failingProvider{resolveErr: errors.New("no timezone configured")})
		out := r.Render(instant, LayoutClock, true)
		assert.Equal(t, "06/01, 09:05 AM", out)
	})

	t.Run("convert failure", func(t *testing.T) {
		r := NewRenderer(&failingProvider{convertErr: errors.New("conversion broken")})
		out := r.Render(instant, LayoutClock, true)
		assert.Equal(t, "06/01, 09:05 AM", out)
	})

	t.Run("nil provider", func(t *testing.T) {
		r := NewRenderer(nil)
		out := r.Render(instant, "", false)
		assert.NotEmpty(t, out)
	})

	t.Run("never empty", func(t *testing.T) {
		r := NewRenderer(&failingProvider{resolveErr: errors.New("boom")})
		assert.NotEmpty(t, r.Render(time.Time{}, LayoutClock, true))
	})
}
