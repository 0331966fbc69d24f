package peer

import (
	"net/netip"
	"time"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// Cached 连接层缓存的数据
type Cached struct {
	ConnectedTime     time.Time
	BytesReceived     uint64
	BytesSent         uint64
	LocalEndpoint     netip.AddrPort
	PeerEndpoint      netip.AddrPort
	PeerExtenderUUIDs types.ExtenderUUIDs
}

// Data 单个节点连接的数据
//
// Data 本身不是并发安全的，由 Peer 的读写锁保护。
type Data struct {
	LUID     types.PeerLUID
	PeerUUID types.PeerUUID
	Status   types.PeerStatus
	Type     types.Direction

	IsRelayed                 bool
	IsAuthenticated           bool
	IsUsingGlobalSharedSecret bool

	ExtendersBytesReceived uint64
	ExtendersBytesSent     uint64

	LocalProtocolVersion types.ProtocolVersion
	PeerProtocolVersion  types.ProtocolVersion

	LocalSessionID uint64
	PeerSessionID  uint64

	Cached Cached
}

// NewData 创建处于 Initialized 状态的节点数据
func NewData(luid types.PeerLUID, dir types.Direction, local, remote netip.AddrPort) Data {
	return Data{
		LUID:                 luid,
		Status:               types.StatusInitialized,
		Type:                 dir,
		LocalProtocolVersion: types.CurrentProtocolVersion,
		Cached: Cached{
			LocalEndpoint:     local,
			PeerEndpoint:      remote,
			PeerExtenderUUIDs: types.NewExtenderUUIDs(),
		},
	}
}

// SetStatus 迁移状态
//
// 非法迁移返回 types.ErrInvalidStatusTransition，状态不变。
func (d *Data) SetStatus(next types.PeerStatus) error {
	if err := d.Status.ValidateTransition(next); err != nil {
		return err
	}
	d.Status = next
	return nil
}

// MatchQuery 检查节点是否满足查询条件
//
// 只有 Ready 状态的节点可以匹配。依次检查认证、中继、方向和扩展集合，
// 任一条件不满足即返回 types.ErrNoMatch。
func (d *Data) MatchQuery(params types.PeerQueryParameters) (types.PeerLUID, error) {
	if d.Status != types.StatusReady {
		return 0, types.ErrNoMatch
	}

	switch params.Authentication {
	case types.AuthenticationAuthenticated:
		if !d.IsAuthenticated {
			return 0, types.ErrNoMatch
		}
	case types.AuthenticationNotAuthenticated:
		if d.IsAuthenticated {
			return 0, types.ErrNoMatch
		}
	}

	switch params.Relays {
	case types.RelayRelayed:
		if !d.IsRelayed {
			return 0, types.ErrNoMatch
		}
	case types.RelayNotRelayed:
		if d.IsRelayed {
			return 0, types.ErrNoMatch
		}
	}

	switch params.Connections {
	case types.ConnectionInbound:
		if d.Type != types.DirInbound {
			return 0, types.ErrNoMatch
		}
	case types.ConnectionOutbound:
		if d.Type != types.DirOutbound {
			return 0, types.ErrNoMatch
		}
	}

	if !matchExtenders(d.Cached.PeerExtenderUUIDs, params.Extenders) {
		return 0, types.ErrNoMatch
	}
	return d.LUID, nil
}

// matchExtenders 检查扩展集合，条件为空时总是通过
func matchExtenders(have types.ExtenderUUIDs, q types.ExtenderQuery) bool {
	if len(q.UUIDs) == 0 {
		return true
	}

	switch q.Include {
	case types.IncludeAllOf:
		for _, id := range q.UUIDs {
			if !have.HasExtender(id) {
				return false
			}
		}
		return true
	case types.IncludeOneOf:
		for _, id := range q.UUIDs {
			if have.HasExtender(id) {
				return true
			}
		}
		return false
	case types.IncludeNoneOf:
		for _, id := range q.UUIDs {
			if have.HasExtender(id) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Details 节点数据的只读快照
type Details struct {
	LUID                      types.PeerLUID
	PeerUUID                  types.PeerUUID
	Status                    types.PeerStatus
	Direction                 types.Direction
	IsRelayed                 bool
	IsAuthenticated           bool
	IsUsingGlobalSharedSecret bool
	LocalProtocolVersion      types.ProtocolVersion
	PeerProtocolVersion       types.ProtocolVersion
	ConnectedTime             time.Time
	BytesReceived             uint64
	BytesSent                 uint64
	ExtendersBytesReceived    uint64
	ExtendersBytesSent        uint64
	LocalEndpoint             netip.AddrPort
	PeerEndpoint              netip.AddrPort
	Extenders                 []types.ExtenderUUID
}

// Details 返回数据快照，扩展集合被复制
func (d *Data) Details() Details {
	return Details{
		LUID:                      d.LUID,
		PeerUUID:                  d.PeerUUID,
		Status:                    d.Status,
		Direction:                 d.Type,
		IsRelayed:                 d.IsRelayed,
		IsAuthenticated:           d.IsAuthenticated,
		IsUsingGlobalSharedSecret: d.IsUsingGlobalSharedSecret,
		LocalProtocolVersion:      d.LocalProtocolVersion,
		PeerProtocolVersion:       d.PeerProtocolVersion,
		ConnectedTime:             d.Cached.ConnectedTime,
		BytesReceived:             d.Cached.BytesReceived,
		BytesSent:                 d.Cached.BytesSent,
		ExtendersBytesReceived:    d.ExtendersBytesReceived,
		ExtendersBytesSent:        d.ExtendersBytesSent,
		LocalEndpoint:             d.Cached.LocalEndpoint,
		PeerEndpoint:              d.Cached.PeerEndpoint,
		Extenders:                 d.Cached.PeerExtenderUUIDs.List(),
	}
}
