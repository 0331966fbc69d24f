package types

import "strings"

// ============================================================================
//                              Direction - 连接方向
// ============================================================================

// Direction 连接方向
type Direction int

const (
	// DirUnknown 未知方向
	DirUnknown Direction = iota
	// DirInbound 入站连接
	DirInbound
	// DirOutbound 出站连接
	DirOutbound
)

// String 返回方向的字符串表示
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              AddressFamily - 地址族
// ============================================================================

// AddressFamily IP 地址族
type AddressFamily int

const (
	// FamilyUnspecified 未指定
	FamilyUnspecified AddressFamily = iota
	// FamilyIPv4 IPv4
	FamilyIPv4
	// FamilyIPv6 IPv6
	FamilyIPv6
)

// String 返回地址族的字符串表示
func (f AddressFamily) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return "unspecified"
	}
}

// MaxPrefixBits 返回该地址族的最大前缀位数（未指定时返回 -1）
func (f AddressFamily) MaxPrefixBits() int {
	switch f {
	case FamilyIPv4:
		return 32
	case FamilyIPv6:
		return 128
	default:
		return -1
	}
}

// ParseAddressFamily 解析地址族名称（不区分大小写）
func ParseAddressFamily(s string) (AddressFamily, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ipv4", "ip4", "4":
		return FamilyIPv4, true
	case "ipv6", "ip6", "6":
		return FamilyIPv6, true
	default:
		return FamilyUnspecified, false
	}
}

// ============================================================================
//                              IPFilterType - IP 过滤类型
// ============================================================================

// IPFilterType IP 过滤规则类型
type IPFilterType int

const (
	// IPFilterBlocked 阻止匹配的地址
	IPFilterBlocked IPFilterType = iota
	// IPFilterAllowed 允许匹配的地址（覆盖默认策略）
	IPFilterAllowed
)

// String 返回过滤类型的字符串表示
func (t IPFilterType) String() string {
	switch t {
	case IPFilterAllowed:
		return "allowed"
	default:
		return "blocked"
	}
}

// ============================================================================
//                              ReputationUpdate - 信誉更新
// ============================================================================

// ReputationUpdate 信誉更新类型
//
// 由外部的行为检测模块产生，访问控制层只负责把它映射为配置的分值增量。
type ReputationUpdate int

const (
	// ReputationImproveMinimal 轻微提升
	ReputationImproveMinimal ReputationUpdate = iota
	// ReputationDeteriorateMinimal 轻微降低
	ReputationDeteriorateMinimal
	// ReputationDeteriorateModerate 中度降低
	ReputationDeteriorateModerate
	// ReputationDeteriorateSevere 严重降低
	ReputationDeteriorateSevere
)

// String 返回更新类型的字符串表示
func (u ReputationUpdate) String() string {
	switch u {
	case ReputationImproveMinimal:
		return "improve_minimal"
	case ReputationDeteriorateMinimal:
		return "deteriorate_minimal"
	case ReputationDeteriorateModerate:
		return "deteriorate_moderate"
	case ReputationDeteriorateSevere:
		return "deteriorate_severe"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              DenyReason - 拒绝原因
// ============================================================================

// DenyReason 准入拒绝原因
type DenyReason int

const (
	// DenyNone 未拒绝
	DenyNone DenyReason = iota
	// DenyInvalidAddress 地址无效
	DenyInvalidAddress
	// DenyIPFilter 被 IP 过滤规则阻止
	DenyIPFilter
	// DenyReputation 信誉低于阈值
	DenyReputation
	// DenyConnectionAttempts 连接尝试过于频繁
	DenyConnectionAttempts
	// DenySubnetLimit 子网连接数已满
	DenySubnetLimit
)

// String 返回拒绝原因的字符串表示
func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyInvalidAddress:
		return "invalid_address"
	case DenyIPFilter:
		return "ip_filter"
	case DenyReputation:
		return "reputation"
	case DenyConnectionAttempts:
		return "connection_attempts"
	case DenySubnetLimit:
		return "subnet_limit"
	default:
		return "unknown"
	}
}
