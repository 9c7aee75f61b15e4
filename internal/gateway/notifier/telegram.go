package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// 中文说明：
// Telegram 通知器：把渲染好的通知正文推送至指定群/频道。
// 正文在投递前统一裁剪并替换代码围栏，避免超长或 Markdown 解析失败。

// Telegram 单条消息上限 4096，留出余量给转义膨胀。
const maxTelegramTextLen = 3800

const defaultTelegramAPIBase = "https://api.telegram.org"

type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultTelegramAPIBase,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SendText 发送文本消息（带最多 3 次重试，间隔递增）
func (t *Telegram) SendText(text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return fmt.Errorf("Telegram 配置不完整")
	}
	base := t.APIBase
	if base == "" {
		base = defaultTelegramAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken)

	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       clampText(text),
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

// clampText 替换代码围栏并按上限裁剪。
// 渲染层允许 AI 推理段带任意文本，围栏必须在这里消掉。
func clampText(text string) string {
	text = strings.ReplaceAll(text, "```", "'''")
	if len(text) > maxTelegramTextLen {
		text = text[:maxTelegramTextLen] + "..."
	}
	return text
}
