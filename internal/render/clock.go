package render

import "time"

// Clock 抽象当前时间来源，测试里可注入固定时钟。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 返回真实时钟。
func SystemClock() Clock {
	return systemClock{}
}
