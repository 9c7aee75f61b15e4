// Package timezone 提供展示时区的解析与转换。
// 渲染层只依赖 Provider 接口，时区来源（配置、用户档案）由装配方决定。
package timezone

import (
	"fmt"
	"strings"
	"time"
)

// Provider 回答两个问题：展示时区是什么，以及把时间换算过去。
type Provider interface {
	DisplayTimezone() (string, error)
	Convert(t time.Time, from, to string) (time.Time, error)
}

// Static 始终返回固定时区，是配置驱动部署的默认实现。
type Static struct {
	zone string
}

// NewStatic 创建固定时区 Provider。zone 为空时回退 UTC。
func NewStatic(zone string) *Static {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = "UTC"
	}
	return &Static{zone: zone}
}

// FromConfig 用配置里的展示时区构建 Provider，标识无效时报错。
func FromConfig(zone string) (*Static, error) {
	if _, err := loadLocation(zone); err != nil {
		return nil, err
	}
	return NewStatic(zone), nil
}

func (s *Static) DisplayTimezone() (string, error) {
	return s.zone, nil
}

// Convert 把 t 的墙上时间按 from 时区解释后换算到 to 时区。
// t 自带正确时区且 from 一致时等价于 t.In(to)。
func (s *Static) Convert(t time.Time, from, to string) (time.Time, error) {
	fromLoc, err := loadLocation(from)
	if err != nil {
		return time.Time{}, err
	}
	toLoc, err := loadLocation(to)
	if err != nil {
		return time.Time{}, err
	}
	instant := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), fromLoc)
	return instant.In(toLoc), nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}
