package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/doytsujin/QuantumGate/config"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

// Config 访问控制配置
type Config struct {
	Reputation ReputationConfig
	Attempts   AttemptsConfig

	// SubnetLimits 启动时加入的子网限制（已存在的跳过）
	SubnetLimits []types.IPSubnetLimit

	// Filters 启动时加入的过滤规则（已存在的跳过）
	Filters []FilterEntry

	// Persist 是否写入存储（需要存储引擎）
	Persist bool
}

// ReputationConfig 信誉配置
type ReputationConfig struct {
	DefaultScore    int16
	MinimumScore    int16
	MaximumScore    int16
	RejectThreshold int16

	ImproveMinimal      int16
	DeteriorateMinimal  int16
	DeteriorateModerate int16
	DeteriorateSevere   int16

	// RecoveryInterval 低于默认分数时的恢复周期，0 表示不恢复
	RecoveryInterval time.Duration
	RecoveryStep     int16
}

// AttemptsConfig 入站连接尝试频率配置
type AttemptsConfig struct {
	Enabled        bool
	MaxPerInterval int
	Interval       time.Duration
	IdleTimeout    time.Duration
}

// FilterEntry 过滤规则配置项
type FilterEntry struct {
	CIDR string
	Type types.IPFilterType
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Reputation: DefaultReputationConfig(),
		Attempts: AttemptsConfig{
			Enabled:        true,
			MaxPerInterval: 32,
			Interval:       10 * time.Second,
			IdleTimeout:    5 * time.Minute,
		},
		Persist: true,
	}
}

// DefaultReputationConfig 返回默认信誉配置
func DefaultReputationConfig() ReputationConfig {
	return ReputationConfig{
		DefaultScore:        0,
		MinimumScore:        -3000,
		MaximumScore:        100,
		RejectThreshold:     -1000,
		ImproveMinimal:      20,
		DeteriorateMinimal:  -20,
		DeteriorateModerate: -250,
		DeteriorateSevere:   -3000,
		RecoveryInterval:    time.Minute,
		RecoveryStep:        10,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	r := c.Reputation
	if r.MinimumScore >= r.MaximumScore ||
		r.DefaultScore < r.MinimumScore || r.DefaultScore > r.MaximumScore ||
		r.RejectThreshold < r.MinimumScore || r.RejectThreshold >= r.DefaultScore {
		return fmt.Errorf("%w: reputation score range", ErrInvalidConfig)
	}
	if r.RecoveryInterval < 0 || r.RecoveryStep < 0 {
		return fmt.Errorf("%w: reputation recovery", ErrInvalidConfig)
	}
	if c.Attempts.Enabled && (c.Attempts.MaxPerInterval <= 0 || c.Attempts.Interval <= 0) {
		return fmt.Errorf("%w: attempts", ErrInvalidConfig)
	}
	return nil
}

// delta 返回更新类型对应的分数增量
func (r ReputationConfig) delta(u types.ReputationUpdate) int16 {
	switch u {
	case types.ReputationImproveMinimal:
		return r.ImproveMinimal
	case types.ReputationDeteriorateMinimal:
		return r.DeteriorateMinimal
	case types.ReputationDeteriorateModerate:
		return r.DeteriorateModerate
	case types.ReputationDeteriorateSevere:
		return r.DeteriorateSevere
	default:
		return 0
	}
}

// ConfigFromUnified 从统一配置创建访问控制配置
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	c := DefaultConfig()
	if cfg == nil {
		return c, nil
	}

	a := cfg.Access
	r := a.Reputation
	c.Reputation = ReputationConfig{
		DefaultScore:        r.DefaultScore,
		MinimumScore:        r.MinimumScore,
		MaximumScore:        r.MaximumScore,
		RejectThreshold:     r.RejectThreshold,
		ImproveMinimal:      r.ImproveMinimal,
		DeteriorateMinimal:  r.DeteriorateMinimal,
		DeteriorateModerate: r.DeteriorateModerate,
		DeteriorateSevere:   r.DeteriorateSevere,
		RecoveryInterval:    r.RecoveryInterval.Duration(),
		RecoveryStep:        r.RecoveryStep,
	}
	c.Attempts = AttemptsConfig{
		Enabled:        a.Attempts.Enabled,
		MaxPerInterval: a.Attempts.MaxPerInterval,
		Interval:       a.Attempts.Interval.Duration(),
		IdleTimeout:    a.Attempts.IdleTimeout.Duration(),
	}
	c.Persist = a.Persist

	for _, l := range a.SubnetLimits {
		family, ok := types.ParseAddressFamily(l.Family)
		if !ok {
			return c, fmt.Errorf("%w: %q", ErrInvalidAddressFamily, l.Family)
		}
		c.SubnetLimits = append(c.SubnetLimits, types.IPSubnetLimit{
			AddressFamily:      family,
			CIDRLeadingBits:    l.CIDRLeadingBits,
			MaximumConnections: l.MaximumConnections,
		})
	}

	for _, f := range a.Filters {
		typ := types.IPFilterBlocked
		if strings.EqualFold(f.Type, "allowed") {
			typ = types.IPFilterAllowed
		}
		c.Filters = append(c.Filters, FilterEntry{CIDR: f.CIDR, Type: typ})
	}

	return c, c.Validate()
}
