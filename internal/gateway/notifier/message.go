package notifier

import (
	"fmt"
	"strings"
	"time"
)

// NoticeSection 是运维通知里的一个命名条目组。
type NoticeSection struct {
	Name  string
	Items []string
}

// OpsNotice 描述面向运维的结构化通知（启动摘要、通道热更等），
// 与业务通知走同一套 Markdown 约定，可直接交给任意 TextNotifier。
type OpsNotice struct {
	Emblem   string
	Headline string
	Sections []NoticeSection
	At       time.Time
}

// Markdown 渲染通知正文。空段落被跳过，围栏与长度交给 clampText 收口。
func (n OpsNotice) Markdown() string {
	var b strings.Builder
	if head := strings.TrimSpace(strings.TrimSpace(n.Emblem) + " " + strings.TrimSpace(n.Headline)); head != "" {
		fmt.Fprintf(&b, "%s\n", head)
	}
	for _, sec := range n.Sections {
		items := trimmedItems(sec.Items)
		if len(items) == 0 {
			continue
		}
		b.WriteString("\n")
		if name := strings.TrimSpace(sec.Name); name != "" {
			fmt.Fprintf(&b, "*%s*\n", name)
		}
		for _, item := range items {
			fmt.Fprintf(&b, "  • %s\n", item)
		}
	}
	if !n.At.IsZero() {
		fmt.Fprintf(&b, "\n`%s`", n.At.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return clampText(strings.TrimSpace(b.String()))
}

func trimmedItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := strings.TrimSpace(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}
