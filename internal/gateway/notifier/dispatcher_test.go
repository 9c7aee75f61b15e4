package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu    sync.Mutex
	sent  []string
	fail  error
	delay time.Duration
}

func (c *recordingChannel) SendText(text string) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.fail != nil {
		return c.fail
	}
	c.mu.Lock()
	c.sent = append(c.sent, text)
	c.mu.Unlock()
	return nil
}

func (c *recordingChannel) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func TestDispatcherFanOut(t *testing.T) {
	d := NewDispatcher()
	a := &recordingChannel{}
	b := &recordingChannel{}
	d.SetChannel("a", a)
	d.SetChannel("b", b)
	d.SetRoutes(map[string][]string{KindTrade: {"a", "b"}})

	require.NoError(t, d.Dispatch(context.Background(), KindTrade, "hello"))
	assert.Equal(t, []string{"hello"}, a.messages())
	assert.Equal(t, []string{"hello"}, b.messages())
}

func TestDispatcherSkipsUnroutedKind(t *testing.T) {
	d := NewDispatcher()
	a := &recordingChannel{}
	d.SetChannel("a", a)
	d.SetRoutes(map[string][]string{KindTrade: {"a"}})

	require.NoError(t, d.Dispatch(context.Background(), KindAnalysis, "ignored"))
	assert.Empty(t, a.messages())
}

func TestDispatcherIgnoresUnknownChannelName(t *testing.T) {
	d := NewDispatcher()
	a := &recordingChannel{}
	d.SetChannel("a", a)
	d.SetRoutes(map[string][]string{KindTrade: {"a", "ghost"}})

	require.NoError(t, d.Dispatch(context.Background(), KindTrade, "hello"))
	assert.Equal(t, []string{"hello"}, a.messages())
}

func TestDispatcherReturnsChannelError(t *testing.T) {
	d := NewDispatcher()
	ok := &recordingChannel{}
	bad := &recordingChannel{fail: errors.New("telegram down")}
	d.SetChannel("ok", ok)
	d.SetChannel("bad", bad)
	d.SetRoutes(map[string][]string{KindPortfolio: {"ok", "bad"}})

	err := d.Dispatch(context.Background(), KindPortfolio, "update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram down")
	// 失败通道不影响其他通道投递。
	assert.Equal(t, []string{"update"}, ok.messages())
}

func TestThrottlerEnforcesInterval(t *testing.T) {
	th := NewThrottler(map[string]time.Duration{KindPortfolio: time.Minute})
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow(KindPortfolio))
	assert.False(t, th.Allow(KindPortfolio))

	now = now.Add(59 * time.Second)
	assert.False(t, th.Allow(KindPortfolio))

	now = now.Add(time.Second)
	assert.True(t, th.Allow(KindPortfolio))

	// 没配间隔的类别不限流。
	assert.True(t, th.Allow(KindTrade))
	assert.True(t, th.Allow(KindTrade))
}

func TestDispatcherThrottles(t *testing.T) {
	d := NewDispatcher()
	a := &recordingChannel{}
	d.SetChannel("a", a)
	d.SetRoutes(map[string][]string{KindPortfolio: {"a"}})
	d.SetThrottle(map[string]time.Duration{KindPortfolio: time.Hour})

	require.NoError(t, d.Dispatch(context.Background(), KindPortfolio, "first"))
	require.NoError(t, d.Dispatch(context.Background(), KindPortfolio, "second"))
	assert.Equal(t, []string{"first"}, a.messages())
}
