package access

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// limitKey 子网限制的唯一键
type limitKey struct {
	family types.AddressFamily
	bits   int
}

// subnetLimit 单条子网限制及其各子网的当前连接数
type subnetLimit struct {
	limitKey
	max    int
	counts map[netip.Prefix]int
}

func (l *subnetLimit) toType() types.IPSubnetLimit {
	return types.IPSubnetLimit{
		AddressFamily:      l.family,
		CIDRLeadingBits:    formatLeadingBits(l.bits),
		MaximumConnections: l.max,
	}
}

// SubnetStats 子网连接统计
type SubnetStats struct {
	// IPv4Connections 当前占用名额的 IPv4 连接数
	IPv4Connections int

	// IPv6Connections 当前占用名额的 IPv6 连接数
	IPv6Connections int

	// Limits 子网限制条数
	Limits int
}

// SubnetLimitStore 子网连接限制表
//
// 一条限制 (family, /N) 作用于该族的每个 /N 子网。地址被准入当且仅当
// 它所属的每个受限子网的连接数都小于上限。检查与计数在同一把锁下完成，
// 并发准入不会超额。
type SubnetLimitStore struct {
	mu     sync.RWMutex
	limits map[limitKey]*subnetLimit

	// live 占用名额的地址及其连接数，新增限制时据此初始化计数
	live map[netip.Addr]int
}

// NewSubnetLimitStore 创建子网限制表
func NewSubnetLimitStore() *SubnetLimitStore {
	return &SubnetLimitStore{
		limits: make(map[limitKey]*subnetLimit),
		live:   make(map[netip.Addr]int),
	}
}

// ParseLeadingBits 解析前缀长度文本，接受 "/N" 或 "N"
func ParseLeadingBits(family types.AddressFamily, s string) (int, error) {
	maxBits := family.MaxPrefixBits()
	if maxBits < 0 {
		return 0, ErrInvalidAddressFamily
	}

	text := strings.TrimPrefix(strings.TrimSpace(s), "/")
	bits, err := strconv.Atoi(text)
	if err != nil || text == "" || text[0] == '+' || text[0] == '-' || bits < 0 || bits > maxBits {
		return 0, fmt.Errorf("%w: %q for %s", ErrInvalidCIDR, s, family)
	}
	return bits, nil
}

func formatLeadingBits(bits int) string {
	return "/" + strconv.Itoa(bits)
}

// parseLimitKey 解析地址族与前缀长度
func parseLimitKey(family types.AddressFamily, cidrLeadingBits string) (limitKey, error) {
	bits, err := ParseLeadingBits(family, cidrLeadingBits)
	if err != nil {
		return limitKey{}, err
	}
	return limitKey{family: family, bits: bits}, nil
}

func familyOf(addr netip.Addr) types.AddressFamily {
	if addr.Is4() {
		return types.FamilyIPv4
	}
	return types.FamilyIPv6
}

// GetAll 返回全部限制，按地址族、前缀长度排序
func (s *SubnetLimitStore) GetAll() []types.IPSubnetLimit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.IPSubnetLimit, 0, len(s.limits))
	keys := s.sortedKeysLocked()
	for _, k := range keys {
		out = append(out, s.limits[k].toType())
	}
	return out
}

func (s *SubnetLimitStore) sortedKeysLocked() []limitKey {
	keys := make([]limitKey, 0, len(s.limits))
	for k := range s.limits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].family != keys[j].family {
			return keys[i].family < keys[j].family
		}
		return keys[i].bits < keys[j].bits
	})
	return keys
}

// Add 添加限制
//
// 前缀文本无效返回 ErrInvalidCIDR，上限为负返回 ErrInvalidLimit，
// 重复返回 ErrAlreadyExists。失败时表不变。
func (s *SubnetLimitStore) Add(family types.AddressFamily, cidrLeadingBits string, maxConnections int) (types.IPSubnetLimit, error) {
	key, err := parseLimitKey(family, cidrLeadingBits)
	if err != nil {
		return types.IPSubnetLimit{}, err
	}
	if maxConnections < 0 {
		return types.IPSubnetLimit{}, ErrInvalidLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.limits[key]; ok {
		return types.IPSubnetLimit{}, ErrAlreadyExists
	}

	l := &subnetLimit{limitKey: key, max: maxConnections, counts: make(map[netip.Prefix]int)}
	for addr, n := range s.live {
		if familyOf(addr) != family {
			continue
		}
		p, _ := addr.Prefix(key.bits)
		l.counts[p] += n
	}
	s.limits[key] = l
	return l.toType(), nil
}

// Remove 删除限制，不存在返回 ErrNotFound
func (s *SubnetLimitStore) Remove(family types.AddressFamily, cidrLeadingBits string) (types.IPSubnetLimit, error) {
	key, err := parseLimitKey(family, cidrLeadingBits)
	if err != nil {
		return types.IPSubnetLimit{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limits[key]
	if !ok {
		return types.IPSubnetLimit{}, ErrNotFound
	}
	delete(s.limits, key)
	return l.toType(), nil
}

// CanAcquire 检查地址是否还有名额，不占用
func (s *SubnetLimitStore) CanAcquire(addr netip.Addr) bool {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkLocked(addr)
}

func (s *SubnetLimitStore) checkLocked(addr netip.Addr) bool {
	family := familyOf(addr)
	for _, l := range s.limits {
		if l.family != family {
			continue
		}
		p, _ := addr.Prefix(l.bits)
		if l.counts[p] >= l.max {
			return false
		}
	}
	return true
}

// Acquire 原子地检查并占用名额
func (s *SubnetLimitStore) Acquire(addr netip.Addr) bool {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.checkLocked(addr) {
		return false
	}

	family := familyOf(addr)
	for _, l := range s.limits {
		if l.family != family {
			continue
		}
		p, _ := addr.Prefix(l.bits)
		l.counts[p]++
	}
	s.live[addr]++
	return true
}

// Release 释放 Acquire 占用的名额，未占用时是无操作
func (s *SubnetLimitStore) Release(addr netip.Addr) {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.live[addr]
	if n == 0 {
		return
	}
	if n == 1 {
		delete(s.live, addr)
	} else {
		s.live[addr] = n - 1
	}

	family := familyOf(addr)
	for _, l := range s.limits {
		if l.family != family {
			continue
		}
		p, _ := addr.Prefix(l.bits)
		if l.counts[p] <= 1 {
			delete(l.counts, p)
		} else {
			l.counts[p]--
		}
	}
}

// Stats 返回统计信息
func (s *SubnetLimitStore) Stats() SubnetStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SubnetStats{Limits: len(s.limits)}
	for addr, n := range s.live {
		if addr.Is4() {
			st.IPv4Connections += n
		} else {
			st.IPv6Connections += n
		}
	}
	return st
}
