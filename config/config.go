// Package config 提供 QuantumGate 统一配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 并支持从 JSON 加载：
//
//	cfg := config.NewConfig()
//	cfg.Access.Reputation.RejectThreshold = -500
//
//	// 从 JSON 加载（未出现的字段保留默认值）
//	cfg, err := config.FromJSON(data)
//
// 各组件通过 ConfigFromUnified 从统一配置派生自己的配置。
package config

import "fmt"

// Config 是 QuantumGate 的完整配置结构
//
// 配置按照功能模块组织：
//   - Access: 准入控制（信誉、子网限制、IP 过滤、尝试频率）
//   - Peer: 节点表与工作协程
//   - Storage: 持久化存储
//   - Metrics: 指标采集
type Config struct {
	// Access 准入控制配置
	Access AccessConfig `json:"access"`

	// Peer 节点管理配置
	Peer PeerConfig `json:"peer"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Access:  DefaultAccessConfig(),
		Peer:    DefaultPeerConfig(),
		Storage: DefaultStorageConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// Validate 验证配置
//
// 检查所有子配置，返回第一个错误。
func (c *Config) Validate() error {
	if err := c.Access.Validate(); err != nil {
		return fmt.Errorf("access: %w", err)
	}
	if err := c.Peer.Validate(); err != nil {
		return fmt.Errorf("peer: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
