// Package chart 负责资金曲线的前端载荷、HTML 渲染与 PNG 截图。
package chart

// 前端约定的组件 ID 前缀，载荷按 "前缀-模型名" 定位图表实例。
const componentPrefix = "AutoTradingAgent"

// 过滤条件支持的操作符。
const (
	OpGTE   = "gte"
	OpEqual = "="
)

// Filter 是载荷中的单个维度过滤条件。
type Filter struct {
	Dimension string `json:"dimension"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// Payload 是一次资金点位上报的完整载荷，
// data 的键是序列名，值是数值。
type Payload struct {
	ID      string             `json:"id"`
	Filters []Filter           `json:"filters"`
	Data    map[string]float64 `json:"data"`
}

// PortfolioPayload 构造资金曲线的上报载荷：
// Time 过滤从本次时间戳起，Model 过滤锁定当前模型。
func PortfolioPayload(model, timestamp string, value float64) Payload {
	return Payload{
		ID: componentPrefix + "-" + model,
		Filters: []Filter{
			{Dimension: "Time", Operator: OpGTE, Value: timestamp},
			{Dimension: "Model", Operator: OpEqual, Value: model},
		},
		Data: map[string]float64{"Portfolio": value},
	}
}
