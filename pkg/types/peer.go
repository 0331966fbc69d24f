package types

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ============================================================================
//                              PeerLUID - 本地连接 ID
// ============================================================================

// PeerLUID 本地唯一连接标识，仅在本进程内有效
type PeerLUID uint64

// String 返回十进制表示
func (id PeerLUID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ============================================================================
//                              PeerUUID - 节点身份
// ============================================================================

// PeerUUID 远端节点的全局身份，仅在认证完成后填充
type PeerUUID = uuid.UUID

// NilPeerUUID 未认证节点的空身份
var NilPeerUUID = uuid.Nil

// ============================================================================
//                              Extender - 扩展模块标识
// ============================================================================

// ExtenderUUID 扩展模块标识
type ExtenderUUID = uuid.UUID

// ExtenderUUIDs 节点声明支持的扩展模块集合
type ExtenderUUIDs map[ExtenderUUID]struct{}

// NewExtenderUUIDs 从列表创建扩展集合
func NewExtenderUUIDs(ids ...ExtenderUUID) ExtenderUUIDs {
	set := make(ExtenderUUIDs, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// HasExtender 检查集合是否包含指定扩展
func (s ExtenderUUIDs) HasExtender(id ExtenderUUID) bool {
	_, ok := s[id]
	return ok
}

// Add 添加扩展
func (s ExtenderUUIDs) Add(id ExtenderUUID) {
	s[id] = struct{}{}
}

// Remove 移除扩展
func (s ExtenderUUIDs) Remove(id ExtenderUUID) {
	delete(s, id)
}

// Clone 返回集合副本
func (s ExtenderUUIDs) Clone() ExtenderUUIDs {
	out := make(ExtenderUUIDs, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// List 返回扩展列表（无序）
func (s ExtenderUUIDs) List() []ExtenderUUID {
	out := make([]ExtenderUUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// ============================================================================
//                              ProtocolVersion - 协议版本
// ============================================================================

// ProtocolVersion 协议版本号
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentProtocolVersion 本地实现的协议版本
var CurrentProtocolVersion = ProtocolVersion{Major: 0, Minor: 1}

// String 返回 "major.minor" 形式
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsZero 是否未设置
func (v ProtocolVersion) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}
