package access

import (
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/doytsujin/QuantumGate/pkg/types"
)

// ReputationStore 地址信誉表
//
// 低于默认分数的记录随时间恢复：每经过 RecoveryInterval 增加 RecoveryStep，
// 不超过默认分数。恢复在读取时按经过的时间计算，在写入时落实到记录上，
// 因此不需要后台协程。
type ReputationStore struct {
	mu      sync.RWMutex
	cfg     ReputationConfig
	clock   clock.Clock
	entries map[netip.Addr]types.IPReputation
}

// NewReputationStore 创建信誉表
func NewReputationStore(cfg ReputationConfig, clk clock.Clock) *ReputationStore {
	if clk == nil {
		clk = clock.New()
	}
	return &ReputationStore{
		cfg:     cfg,
		clock:   clk,
		entries: make(map[netip.Addr]types.IPReputation),
	}
}

// normalizeAddr 统一地址形式，IPv4 映射地址按 IPv4 处理
func normalizeAddr(addr netip.Addr) (netip.Addr, bool) {
	if !addr.IsValid() {
		return addr, false
	}
	return addr.Unmap().WithZone(""), true
}

// clamp 把分数限制在配置范围内
func (s *ReputationStore) clamp(score int32) int16 {
	if score < int32(s.cfg.MinimumScore) {
		return s.cfg.MinimumScore
	}
	if score > int32(s.cfg.MaximumScore) {
		return s.cfg.MaximumScore
	}
	return int16(score)
}

// effective 返回计入时间恢复后的记录
func (s *ReputationStore) effective(rep types.IPReputation, now time.Time) types.IPReputation {
	if s.cfg.RecoveryInterval <= 0 || s.cfg.RecoveryStep <= 0 || rep.Score >= s.cfg.DefaultScore {
		return rep
	}
	periods := int64(now.Sub(rep.LastUpdateTime) / s.cfg.RecoveryInterval)
	if periods <= 0 {
		return rep
	}

	score := int64(rep.Score) + periods*int64(s.cfg.RecoveryStep)
	if score > int64(s.cfg.DefaultScore) {
		score = int64(s.cfg.DefaultScore)
	}
	rep.Score = int16(score)
	rep.LastUpdateTime = rep.LastUpdateTime.Add(time.Duration(periods) * s.cfg.RecoveryInterval)
	return rep
}

// GetAll 返回全部记录，按地址排序
func (s *ReputationStore) GetAll() []types.IPReputation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	out := make([]types.IPReputation, 0, len(s.entries))
	for _, rep := range s.entries {
		out = append(out, s.effective(rep, now))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Less(out[j].Address)
	})
	return out
}

// Get 返回单个地址的记录
func (s *ReputationStore) Get(addr netip.Addr) (types.IPReputation, bool) {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return types.IPReputation{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.entries[addr]
	if !ok {
		return types.IPReputation{}, false
	}
	return s.effective(rep, s.clock.Now()), true
}

// Len 返回记录数量
func (s *ReputationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Set 插入或覆盖记录，分数被限制在配置范围内，并记录当前时间
func (s *ReputationStore) Set(addr netip.Addr, score int16) (types.IPReputation, error) {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return types.IPReputation{}, ErrInvalidAddress
	}

	rep := types.IPReputation{
		Address:        addr,
		Score:          s.clamp(int32(score)),
		LastUpdateTime: s.clock.Now(),
	}

	s.mu.Lock()
	s.entries[addr] = rep
	s.mu.Unlock()
	return rep, nil
}

// Observe 返回地址当前分数，首次出现的地址以默认分数建档
func (s *ReputationStore) Observe(addr netip.Addr) int16 {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return s.cfg.MinimumScore
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rep, ok := s.entries[addr]
	if !ok {
		rep = types.IPReputation{Address: addr, Score: s.cfg.DefaultScore, LastUpdateTime: now}
		s.entries[addr] = rep
		return rep.Score
	}
	return s.effective(rep, now).Score
}

// IsAcceptable 分数高于拒绝阈值时返回 true
func (s *ReputationStore) IsAcceptable(addr netip.Addr) (int16, bool) {
	score := s.Observe(addr)
	return score, score > s.cfg.RejectThreshold
}

// Update 按更新类型调整分数，地址不存在时以默认分数为基准
func (s *ReputationStore) Update(addr netip.Addr, u types.ReputationUpdate) (types.IPReputation, error) {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return types.IPReputation{}, ErrInvalidAddress
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rep, ok := s.entries[addr]
	if ok {
		rep = s.effective(rep, now)
	} else {
		rep = types.IPReputation{Address: addr, Score: s.cfg.DefaultScore}
	}
	rep.Score = s.clamp(int32(rep.Score) + int32(s.cfg.delta(u)))
	rep.LastUpdateTime = now

	s.entries[addr] = rep
	return rep, nil
}

// Reset 恢复默认分数，地址不存在时是无操作
//
// 第二个返回值表示记录是否存在。
func (s *ReputationStore) Reset(addr netip.Addr) (types.IPReputation, bool, error) {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return types.IPReputation{}, false, ErrInvalidAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[addr]; !ok {
		return types.IPReputation{}, false, nil
	}
	rep := types.IPReputation{Address: addr, Score: s.cfg.DefaultScore, LastUpdateTime: s.clock.Now()}
	s.entries[addr] = rep
	return rep, true, nil
}

// ResetAll 将全部记录恢复为默认分数，返回重置后的记录
func (s *ReputationStore) ResetAll() []types.IPReputation {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.IPReputation, 0, len(s.entries))
	for addr := range s.entries {
		rep := types.IPReputation{Address: addr, Score: s.cfg.DefaultScore, LastUpdateTime: now}
		s.entries[addr] = rep
		out = append(out, rep)
	}
	return out
}

// Remove 删除记录，不存在时返回 ErrNotFound
func (s *ReputationStore) Remove(addr netip.Addr) error {
	addr, ok := normalizeAddr(addr)
	if !ok {
		return ErrInvalidAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[addr]; !ok {
		return ErrNotFound
	}
	delete(s.entries, addr)
	return nil
}

// load 载入持久化记录，保留原有时间戳
func (s *ReputationStore) load(rep types.IPReputation) {
	addr, ok := normalizeAddr(rep.Address)
	if !ok {
		return
	}
	rep.Address = addr
	rep.Score = s.clamp(int32(rep.Score))

	s.mu.Lock()
	s.entries[addr] = rep
	s.mu.Unlock()
}
