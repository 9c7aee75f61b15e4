package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorValueLine     = "#3b82f6"
)

// HistoryPoint 是资金曲线上的一个点。
type HistoryPoint struct {
	Time  time.Time
	Value float64
}

// RenderHistoryHTML 把资金历史渲染为独立 HTML 页面写入 w。
// 点位需按时间升序传入。
func RenderHistoryHTML(w io.Writer, title, seriesName string, points []HistoryPoint, width, height int) error {
	if len(points) == 0 {
		return fmt.Errorf("no portfolio points to render")
	}
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 520
	}

	minVal, maxVal := valueBounds(points)
	padding := (maxVal - minVal) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(maxVal)*0.01)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", width),
			Height:          fmt.Sprintf("%dpx", height),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			Left:       "left",
			Top:        "10",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			Min:       round(minVal-padding, 2),
			Max:       round(maxVal+padding, 2),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	xAxis := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxis[i] = p.Time.UTC().Format("01-02 15:04")
		data[i] = opts.LineData{Value: round(p.Value, 2)}
	}
	line.SetXAxis(xAxis)
	line.AddSeries(seriesName, data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorValueLine, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)
	return page.Render(w)
}

func valueBounds(points []HistoryPoint) (minVal, maxVal float64) {
	minVal = points[0].Value
	maxVal = points[0].Value
	for _, p := range points {
		if p.Value < minVal {
			minVal = p.Value
		}
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	return minVal, maxVal
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
