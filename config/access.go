package config

import (
	"errors"
	"fmt"
	"time"
)

// AccessConfig 准入控制配置
type AccessConfig struct {
	// Reputation 地址信誉配置
	Reputation ReputationConfig `json:"reputation"`

	// Attempts 入站连接尝试频率限制
	Attempts AttemptsConfig `json:"attempts"`

	// SubnetLimits 启动时加载的子网连接限制
	SubnetLimits []SubnetLimitEntry `json:"subnet_limits,omitempty"`

	// Filters 启动时加载的 IP 过滤规则
	Filters []FilterEntry `json:"filters,omitempty"`

	// Persist 是否将信誉、子网限制和过滤规则写入存储
	Persist bool `json:"persist"`
}

// ReputationConfig 地址信誉配置
//
// 分数范围为 [MinimumScore, MaximumScore]，
// 分数不高于 RejectThreshold 的地址被拒绝。
type ReputationConfig struct {
	DefaultScore    int16 `json:"default_score"`
	MinimumScore    int16 `json:"minimum_score"`
	MaximumScore    int16 `json:"maximum_score"`
	RejectThreshold int16 `json:"reject_threshold"`

	// 各类更新的分数增量
	ImproveMinimal      int16 `json:"improve_minimal"`
	DeteriorateMinimal  int16 `json:"deteriorate_minimal"`
	DeteriorateModerate int16 `json:"deteriorate_moderate"`
	DeteriorateSevere   int16 `json:"deteriorate_severe"`

	// RecoveryInterval 低于默认分数时每隔多久恢复一次，0 表示不恢复
	RecoveryInterval Duration `json:"recovery_interval"`

	// RecoveryStep 每个恢复周期增加的分数
	RecoveryStep int16 `json:"recovery_step"`
}

// AttemptsConfig 连接尝试频率配置
type AttemptsConfig struct {
	Enabled bool `json:"enabled"`

	// MaxPerInterval 每个 Interval 内允许的尝试次数（同时作为突发上限）
	MaxPerInterval int `json:"max_per_interval"`

	// Interval 统计周期
	Interval Duration `json:"interval"`

	// IdleTimeout 限速器空闲多久后被清理
	IdleTimeout Duration `json:"idle_timeout"`
}

// SubnetLimitEntry 子网限制配置项
type SubnetLimitEntry struct {
	// Family "IPv4" 或 "IPv6"
	Family string `json:"family"`

	// CIDRLeadingBits 前缀长度，例如 "/24"
	CIDRLeadingBits string `json:"cidr_leading_bits"`

	MaximumConnections int `json:"maximum_connections"`
}

// FilterEntry IP 过滤配置项
type FilterEntry struct {
	// CIDR 例如 "10.0.0.0/8"
	CIDR string `json:"cidr"`

	// Type "blocked" 或 "allowed"
	Type string `json:"type"`
}

// DefaultAccessConfig 返回默认准入控制配置
func DefaultAccessConfig() AccessConfig {
	return AccessConfig{
		Reputation: DefaultReputationConfig(),
		Attempts: AttemptsConfig{
			Enabled:        true,
			MaxPerInterval: 32,
			Interval:       Duration(10 * time.Second),
			IdleTimeout:    Duration(5 * time.Minute),
		},
		Persist: true,
	}
}

// DefaultReputationConfig 返回默认信誉配置
func DefaultReputationConfig() ReputationConfig {
	return ReputationConfig{
		DefaultScore:    0,
		MinimumScore:    -3000,
		MaximumScore:    100,
		RejectThreshold: -1000,

		ImproveMinimal:      20,
		DeteriorateMinimal:  -20,
		DeteriorateModerate: -250,
		DeteriorateSevere:   -3000,

		RecoveryInterval: Duration(time.Minute),
		RecoveryStep:     10,
	}
}

// Validate 验证准入控制配置
func (c *AccessConfig) Validate() error {
	if err := c.Reputation.Validate(); err != nil {
		return err
	}
	if c.Attempts.Enabled {
		if c.Attempts.MaxPerInterval <= 0 {
			return errors.New("attempts: max_per_interval must be positive")
		}
		if c.Attempts.Interval <= 0 {
			return errors.New("attempts: interval must be positive")
		}
	}
	for i, l := range c.SubnetLimits {
		if l.MaximumConnections < 0 {
			return fmt.Errorf("subnet_limits[%d]: maximum_connections must not be negative", i)
		}
	}
	for i, f := range c.Filters {
		if f.Type != "blocked" && f.Type != "allowed" {
			return fmt.Errorf("filters[%d]: unknown type %q", i, f.Type)
		}
	}
	return nil
}

// Validate 验证信誉配置
func (c *ReputationConfig) Validate() error {
	if c.MinimumScore >= c.MaximumScore {
		return errors.New("reputation: minimum_score must be below maximum_score")
	}
	if c.DefaultScore < c.MinimumScore || c.DefaultScore > c.MaximumScore {
		return errors.New("reputation: default_score out of range")
	}
	if c.RejectThreshold < c.MinimumScore || c.RejectThreshold >= c.DefaultScore {
		return errors.New("reputation: reject_threshold must lie in [minimum_score, default_score)")
	}
	if c.RecoveryInterval < 0 || c.RecoveryStep < 0 {
		return errors.New("reputation: recovery settings must not be negative")
	}
	return nil
}
