package notifier

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestTelegramSendText(t *testing.T) {
	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat-1")
	tg.APIBase = srv.URL
	require.NoError(t, tg.SendText("**hello**"))

	raw := gotBody.Load().(string)
	assert.Equal(t, "chat-1", gjson.Get(raw, "chat_id").String())
	assert.Equal(t, "Markdown", gjson.Get(raw, "parse_mode").String())
	assert.Equal(t, "**hello**", gjson.Get(raw, "text").String())
}

func TestTelegramClampsText(t *testing.T) {
	var gotText atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotText.Store(gjson.GetBytes(body, "text").String())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("token", "chat-1")
	tg.APIBase = srv.URL

	long := strings.Repeat("x", maxTelegramTextLen+100) + "```fence```"
	require.NoError(t, tg.SendText(long))

	text := gotText.Load().(string)
	assert.LessOrEqual(t, len(text), maxTelegramTextLen+3)
	assert.NotContains(t, text, "```")
}

func TestTelegramRequiresConfig(t *testing.T) {
	tg := &Telegram{}
	assert.Error(t, tg.SendText("x"))
}
