package types

import (
	"net/netip"
	"time"
)

// ============================================================================
//                              IPReputation - IP 信誉
// ============================================================================

// IPReputation 单个地址的信誉记录
type IPReputation struct {
	// Address IP 地址
	Address netip.Addr `json:"address"`

	// Score 信誉分（有符号，范围由配置约束）
	Score int16 `json:"score"`

	// LastUpdateTime 最后更新时间
	LastUpdateTime time.Time `json:"last_update_time"`
}

// ============================================================================
//                              IPSubnetLimit - 子网连接限制
// ============================================================================

// IPSubnetLimit 子网连接数限制
//
// 限制作用于该前缀长度的每一个子网：同一 addr/bits 子网内的
// 存活连接数不能超过 MaximumConnections。
type IPSubnetLimit struct {
	// AddressFamily 地址族
	AddressFamily AddressFamily `json:"address_family"`

	// CIDRLeadingBits 前缀长度文本，规范形式为 "/N"
	CIDRLeadingBits string `json:"cidr_leading_bits"`

	// MaximumConnections 最大同时连接数
	MaximumConnections int `json:"maximum_connections"`
}

// ============================================================================
//                              IPFilter - IP 过滤规则
// ============================================================================

// IPFilterID IP 过滤规则 ID
type IPFilterID uint64

// IPFilter IP 过滤规则
type IPFilter struct {
	// ID 规则 ID
	ID IPFilterID `json:"id"`

	// Prefix 匹配的网段
	Prefix netip.Prefix `json:"prefix"`

	// Type 过滤类型
	Type IPFilterType `json:"type"`
}

// ============================================================================
//                              AdmissionVerdict - 准入判定
// ============================================================================

// AdmissionVerdict 连接准入判定
//
// 拒绝是正常的业务结果，不是错误。
type AdmissionVerdict struct {
	// Allowed 是否允许
	Allowed bool

	// Reason 拒绝原因（Allowed 时为 DenyNone）
	Reason DenyReason

	// Score 判定时的信誉分
	Score int16
}

// Admit 构造允许判定
func Admit(score int16) AdmissionVerdict {
	return AdmissionVerdict{Allowed: true, Reason: DenyNone, Score: score}
}

// Deny 构造拒绝判定
func Deny(reason DenyReason, score int16) AdmissionVerdict {
	return AdmissionVerdict{Allowed: false, Reason: reason, Score: score}
}
