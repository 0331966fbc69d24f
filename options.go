package quantumgate

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/doytsujin/QuantumGate/config"
	"github.com/doytsujin/QuantumGate/pkg/lib/log"
)

// Option 引擎配置选项
type Option func(*options) error

// options 内部选项结构
type options struct {
	config        *config.Config
	userFxOptions []fx.Option
}

func defaultOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("nil config")
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithConfigFile 从 JSON 文件载入配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		o.config = cfg
		return nil
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		o.config.Storage.DataDir = dir
		return nil
	}
}

// WithInMemoryStorage 使用内存存储，信誉与规则不落盘
func WithInMemoryStorage() Option {
	return func(o *options) error {
		o.config.Storage.InMemory = true
		return nil
	}
}

// WithLogLevel 设置全局日志级别
func WithLogLevel(level slog.Level) Option {
	return func(o *options) error {
		log.SetLevel(level)
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
