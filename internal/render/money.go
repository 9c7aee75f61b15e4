package render

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// money 渲染美元金额：$ 前缀、千分位、固定两位小数。
// 负数保持 $-1,234.56 的形态，符号紧跟 $ 之后。
func money(v decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", v.InexactFloat64())
}

// qty 渲染数量，固定四位小数，不加千分位。
func qty(v decimal.Decimal) string {
	return v.StringFixed(4)
}
