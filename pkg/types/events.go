package types

import (
	"net/netip"
	"time"
)

// ============================================================================
//                              节点生命周期事件
// ============================================================================

// EvtPeerAdded 节点记录已加入连接表
type EvtPeerAdded struct {
	LUID      PeerLUID
	Direction Direction
	Endpoint  netip.AddrPort
	Timestamp time.Time
}

// EvtPeerStatusChanged 节点状态已变化
type EvtPeerStatusChanged struct {
	LUID      PeerLUID
	From      PeerStatus
	To        PeerStatus
	Timestamp time.Time
}

// EvtPeerRemoved 节点记录已从连接表移除
type EvtPeerRemoved struct {
	LUID      PeerLUID
	Endpoint  netip.AddrPort
	Timestamp time.Time
}

// ============================================================================
//                              访问控制事件
// ============================================================================

// EvtAdmissionDenied 连接准入被拒绝
type EvtAdmissionDenied struct {
	Address   netip.Addr
	Direction Direction
	Reason    DenyReason
	Score     int16
	Timestamp time.Time
}
