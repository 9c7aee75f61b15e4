package notifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpsNoticeMarkdown(t *testing.T) {
	n := OpsNotice{
		Emblem:   "🔔",
		Headline: "Notification service online (env=dev)",
		Sections: []NoticeSection{
			{Name: "Channels", Items: []string{"log", "telegram"}},
			{Name: "Empty", Items: []string{"  ", ""}},
			{Name: "Routes", Items: []string{"trade -> [log telegram]"}},
		},
	}
	out := n.Markdown()
	assert.True(t, strings.HasPrefix(out, "🔔 Notification service online"))
	assert.Contains(t, out, "*Channels*")
	assert.Contains(t, out, "  • telegram")
	assert.Contains(t, out, "*Routes*")
	assert.NotContains(t, out, "Empty")
}

func TestOpsNoticeMarkdownClamps(t *testing.T) {
	n := OpsNotice{
		Headline: "summary",
		Sections: []NoticeSection{
			{Name: "Big", Items: []string{strings.Repeat("x", maxTelegramTextLen+200)}},
		},
	}
	out := n.Markdown()
	assert.LessOrEqual(t, len(out), maxTelegramTextLen+3)
}

func TestOpsNoticeMarkdownEmpty(t *testing.T) {
	assert.Empty(t, OpsNotice{}.Markdown())
}
