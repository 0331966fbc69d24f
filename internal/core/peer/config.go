package peer

import (
	"fmt"
	"time"

	"github.com/doytsujin/QuantumGate/config"
)

// Config 节点管理配置
type Config struct {
	// MaxPeers 连接表容量上限，0 表示不限制
	MaxPeers int

	// Workers 初始工作协程数量
	Workers int

	// WorkerWaitTimeout 工作协程单次等待的超时
	WorkerWaitTimeout time.Duration

	// ReapInterval 清理已断开节点的间隔，0 表示只由工作协程清理
	ReapInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxPeers:          0,
		Workers:           2,
		WorkerWaitTimeout: time.Second,
		ReapInterval:      30 * time.Second,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.MaxPeers < 0 {
		return fmt.Errorf("%w: max peers %d", ErrInvalidConfig, c.MaxPeers)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	if c.WorkerWaitTimeout <= 0 {
		return fmt.Errorf("%w: worker wait timeout", ErrInvalidConfig)
	}
	if c.ReapInterval < 0 {
		return fmt.Errorf("%w: reap interval", ErrInvalidConfig)
	}
	return nil
}

// WithMaxPeers 设置连接表容量
func (c Config) WithMaxPeers(n int) Config {
	c.MaxPeers = n
	return c
}

// WithWorkers 设置初始工作协程数量
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// ConfigFromUnified 从统一配置创建节点管理配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxPeers:          cfg.Peer.MaxPeers,
		Workers:           cfg.Peer.Workers,
		WorkerWaitTimeout: cfg.Peer.WorkerWaitTimeout.Duration(),
		ReapInterval:      cfg.Peer.ReapInterval.Duration(),
	}
}
