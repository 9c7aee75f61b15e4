package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 path 指向的 yaml 配置。文件可以通过 include 列表引用其它
// 片段，片段按出现顺序先合并，主文件最后覆盖。未显式设置的键补默认值，
// 最后做基础校验。
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ld := newIncludeLoader()
	files, err := ld.expand(abs)
	if err != nil {
		return nil, err
	}

	merged := viper.New()
	merged.SetConfigType("yaml")
	for _, file := range files {
		part := viper.New()
		part.SetConfigFile(file)
		if err := part.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
		if err := merged.MergeConfigMap(part.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging config file failed (%s): %w", file, err)
		}
	}

	var cfg Config
	if err := merged.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	explicit := make(keySet)
	markExplicitKeys("", merged.AllSettings(), explicit)
	cfg.applyDefaults(explicit)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// includeLoader 展开 include 引用，检测循环并去重。
type includeLoader struct {
	seen  map[string]bool
	stack map[string]bool
}

func newIncludeLoader() *includeLoader {
	return &includeLoader{
		seen:  make(map[string]bool),
		stack: make(map[string]bool),
	}
}

// expand 返回 path 及其 include 闭包，被包含的文件排在前面。
func (l *includeLoader) expand(path string) ([]string, error) {
	path = filepath.Clean(path)
	if l.stack[path] {
		return nil, fmt.Errorf("include cycle detected: %s", path)
	}
	if l.seen[path] {
		return nil, nil
	}
	l.stack[path] = true
	defer delete(l.stack, path)

	includes, err := readIncludeList(path)
	if err != nil {
		return nil, fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	dir := filepath.Dir(path)
	var ordered []string
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		sub, err := l.expand(inc)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, sub...)
	}
	l.seen[path] = true
	return append(ordered, path), nil
}

func readIncludeList(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	raw := v.Get("include")
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("include must be a string array")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include only supports strings")
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

// markExplicitKeys 把配置树里出现过的叶子路径登记到 dest，
// 默认值只补没出现过的键，显式写 false/0 的键不会被覆盖。
func markExplicitKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			markExplicitKeys(joinKeyPath(prefix, k), v, dest)
		}
	case map[any]any:
		for k, v := range val {
			if name, ok := k.(string); ok {
				markExplicitKeys(joinKeyPath(prefix, name), v, dest)
			}
		}
	case []any:
		dest.mark(prefix)
		for _, item := range val {
			markExplicitKeys(prefix, item, dest)
		}
	default:
		dest.mark(prefix)
	}
}

func joinKeyPath(prefix, key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return prefix
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
