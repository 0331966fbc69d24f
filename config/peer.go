package config

import (
	"errors"
	"time"
)

// PeerConfig 节点管理配置
type PeerConfig struct {
	// MaxPeers 节点表容量上限，0 表示不限制
	MaxPeers int `json:"max_peers"`

	// Workers 处理节点数据的工作协程数量
	Workers int `json:"workers"`

	// WorkerWaitTimeout 工作协程单次等待的超时
	WorkerWaitTimeout Duration `json:"worker_wait_timeout"`

	// ReapInterval 清理已断开节点的间隔
	ReapInterval Duration `json:"reap_interval"`
}

// DefaultPeerConfig 返回默认节点管理配置
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		MaxPeers:          0,
		Workers:           2,
		WorkerWaitTimeout: Duration(time.Second),
		ReapInterval:      Duration(30 * time.Second),
	}
}

// Validate 验证节点管理配置
func (c *PeerConfig) Validate() error {
	if c.MaxPeers < 0 {
		return errors.New("max_peers must not be negative")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.WorkerWaitTimeout <= 0 {
		return errors.New("worker_wait_timeout must be positive")
	}
	return nil
}
