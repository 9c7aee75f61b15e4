// Package render 把交易、资金、行情分析事件渲染成可推送的通知文本。
// 所有入口都遵循同一条约定：任何输入都能换回一个可用的 Result，
// 内容不可用时退化为兜底文案，绝不向调用方抛错误。
package render

// Result 是一次渲染的产出。Text 总是非空、可直接推送；
// Degraded 为 true 时 Text 是兜底文案，Cause 记录退化原因。
type Result struct {
	Text     string
	Degraded bool
	Cause    error
}

func (r Result) String() string {
	return r.Text
}

func rendered(text string) Result {
	return Result{Text: text}
}

func degraded(text string, cause error) Result {
	return Result{Text: text, Degraded: true, Cause: cause}
}
