package access

import (
	"fmt"
	"net/netip"
	"sort"
	"sync"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// FilterStore IP 过滤规则表
//
// 判定规则：命中任一允许规则则放行；否则命中任一阻止规则则拒绝；
// 都未命中时放行。
type FilterStore struct {
	mu      sync.RWMutex
	nextID  types.IPFilterID
	filters map[types.IPFilterID]types.IPFilter
}

// NewFilterStore 创建过滤规则表
func NewFilterStore() *FilterStore {
	return &FilterStore{
		nextID:  1,
		filters: make(map[types.IPFilterID]types.IPFilter),
	}
}

// ParseFilterPrefix 解析 CIDR 文本，也接受单个地址
func ParseFilterPrefix(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		addr, aerr := netip.ParseAddr(cidr)
		if aerr != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, cidr)
		}
		addr = addr.Unmap()
		p = netip.PrefixFrom(addr, addr.BitLen())
	}
	if p.Addr().Is4In6() {
		bits := p.Bits() - 96
		if bits < 0 {
			return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidCIDR, cidr)
		}
		p = netip.PrefixFrom(p.Addr().Unmap(), bits)
	}
	return p.Masked(), nil
}

// Add 添加规则，相同网段与类型的规则已存在时返回 ErrAlreadyExists
func (s *FilterStore) Add(cidr string, typ types.IPFilterType) (types.IPFilter, error) {
	p, err := ParseFilterPrefix(cidr)
	if err != nil {
		return types.IPFilter{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.filters {
		if f.Prefix == p && f.Type == typ {
			return types.IPFilter{}, ErrAlreadyExists
		}
	}

	f := types.IPFilter{ID: s.nextID, Prefix: p, Type: typ}
	s.filters[f.ID] = f
	s.nextID++
	return f, nil
}

// Remove 删除规则，不存在返回 ErrNotFound
func (s *FilterStore) Remove(id types.IPFilterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.filters[id]; !ok {
		return ErrNotFound
	}
	delete(s.filters, id)
	return nil
}

// GetAll 返回全部规则，按 ID 排序
func (s *FilterStore) GetAll() []types.IPFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.IPFilter, 0, len(s.filters))
	for _, f := range s.filters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsAllowed 检查地址是否通过过滤
func (s *FilterStore) IsAllowed(addr netip.Addr) bool {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blocked := false
	for _, f := range s.filters {
		if !f.Prefix.Contains(addr) {
			continue
		}
		if f.Type == types.IPFilterAllowed {
			return true
		}
		blocked = true
	}
	return !blocked
}

// load 载入持久化规则，保留原 ID
func (s *FilterStore) load(f types.IPFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters[f.ID] = f
	if f.ID >= s.nextID {
		s.nextID = f.ID + 1
	}
}
