package interfaces

import (
	"net/netip"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// AccessManager 访问控制管理接口
//
// 提供地址信誉、子网连接限制与 IP 过滤规则的管理，以及连接准入判定。
// 所有方法都是并发安全的；拒绝准入不是错误，通过 AdmissionVerdict 返回。
type AccessManager interface {
	// ===== 地址信誉 =====

	// GetAllIPReputations 返回全部信誉记录的快照
	GetAllIPReputations() ([]types.IPReputation, error)

	// SetIPReputation 设置地址信誉，分数被限制在配置范围内，并记录当前时间
	SetIPReputation(rep types.IPReputation) error

	// ResetIPReputation 将地址信誉恢复为默认值，地址不存在时也返回成功
	ResetIPReputation(addr string) error

	// ResetAllIPReputations 将所有信誉恢复为默认值
	ResetAllIPReputations() error

	// RemoveIPReputation 删除信誉记录，不存在时返回 not found
	RemoveIPReputation(addr string) error

	// UpdateIPReputation 按更新类型调整地址信誉
	UpdateIPReputation(addr netip.Addr, update types.ReputationUpdate) error

	// ===== 子网限制 =====

	// GetAllIPSubnetLimits 返回全部子网限制
	GetAllIPSubnetLimits() ([]types.IPSubnetLimit, error)

	// AddIPSubnetLimit 添加子网限制，例如 ("IPv4", "/24", 2)
	AddIPSubnetLimit(family, cidrLeadingBits string, maxConnections int) error

	// RemoveIPSubnetLimit 删除子网限制
	RemoveIPSubnetLimit(family, cidrLeadingBits string) error

	// ===== IP 过滤 =====

	// AddIPFilter 添加过滤规则，返回规则 ID
	AddIPFilter(cidr string, typ types.IPFilterType) (types.IPFilterID, error)

	// RemoveIPFilter 删除过滤规则
	RemoveIPFilter(id types.IPFilterID) error

	// GetAllIPFilters 返回全部过滤规则
	GetAllIPFilters() ([]types.IPFilter, error)

	// IsIPAllowed 检查地址是否通过过滤规则
	IsIPAllowed(addr netip.Addr) bool

	// ===== 准入 =====

	// AdmitConnection 判定连接是否准入，允许时同时占用子网连接名额
	AdmitConnection(addr netip.Addr, dir types.Direction) types.AdmissionVerdict

	// ReleaseConnection 释放 AdmitConnection 占用的子网连接名额
	ReleaseConnection(addr netip.Addr)
}
