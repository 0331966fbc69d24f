package access

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/doytsujin/QuantumGate/internal/core/storage/kv"
	pkgif "github.com/doytsujin/QuantumGate/pkg/interfaces"
	"github.com/doytsujin/QuantumGate/pkg/lib/log"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

var logger = log.Logger("core/access")

// Manager 访问控制管理器
type Manager struct {
	cfg   Config
	clock clock.Clock

	reputations *ReputationStore
	subnets     *SubnetLimitStore
	filters     *FilterStore
	attempts    *AttemptLimiter

	persist  *persister
	recorder pkgif.AdmissionRecorder
	bus      pkgif.EventBus
	denied   pkgif.Emitter
}

// Option 管理器选项
type Option func(*Manager)

// WithClock 使用指定时钟（测试中传入 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(m *Manager) {
		m.clock = clk
	}
}

// WithStore 使用 KV 存储持久化访问控制表
func WithStore(store *kv.Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.persist = newPersister(store)
		}
	}
}

// WithRecorder 记录准入判定指标
func WithRecorder(r pkgif.AdmissionRecorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithEventBus 在拒绝准入时发布 EvtAdmissionDenied
func WithEventBus(bus pkgif.EventBus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// NewManager 创建访问控制管理器
//
// 返回的管理器立即可用；Start 载入持久化数据、加入配置中的规则并启动后台清理。
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if !cfg.Persist {
		m.persist = nil
	}

	m.reputations = NewReputationStore(cfg.Reputation, m.clock)
	m.subnets = NewSubnetLimitStore()
	m.filters = NewFilterStore()
	m.attempts = NewAttemptLimiter(cfg.Attempts, m.clock)

	if m.bus != nil {
		em, err := m.bus.Emitter(new(types.EvtAdmissionDenied))
		if err != nil {
			return nil, fmt.Errorf("admission denied emitter: %w", err)
		}
		m.denied = em
	}
	return m, nil
}

// Start 载入持久化数据并加入配置中的规则
func (m *Manager) Start(_ context.Context) error {
	if m.persist != nil {
		if err := m.persist.loadInto(m.reputations, m.subnets, m.filters); err != nil {
			return err
		}
	}

	for _, l := range m.cfg.SubnetLimits {
		err := m.addSubnetLimit(l.AddressFamily, l.CIDRLeadingBits, l.MaximumConnections)
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("subnet limit %s%s: %w", l.AddressFamily, l.CIDRLeadingBits, err)
		}
	}
	for _, f := range m.cfg.Filters {
		if _, err := m.AddIPFilter(f.CIDR, f.Type); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("filter %s: %w", f.CIDR, err)
		}
	}

	m.attempts.Start()

	logger.Info("访问控制已启动",
		"reputations", m.reputations.Len(),
		"subnetLimits", len(m.subnets.GetAll()),
		"filters", len(m.filters.GetAll()),
		"persist", m.persist != nil)
	return nil
}

// Close 停止后台任务
func (m *Manager) Close() error {
	err := m.attempts.Close()
	if m.denied != nil {
		err = multierr.Append(err, m.denied.Close())
	}
	return err
}

// parseAddr 解析地址文本
func parseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// persistErr 记录持久化失败，内存中的修改保留
func (m *Manager) persistErr(op string, err error) {
	if err != nil {
		logger.Warn("访问控制持久化失败", "op", op, "error", err)
	}
}

// ============================================================================
//                              地址信誉
// ============================================================================

// GetAllIPReputations 返回全部信誉记录
func (m *Manager) GetAllIPReputations() ([]types.IPReputation, error) {
	return m.reputations.GetAll(), nil
}

// GetIPReputation 返回单个地址的信誉
func (m *Manager) GetIPReputation(addr netip.Addr) (types.IPReputation, bool) {
	return m.reputations.Get(addr)
}

// SetIPReputation 设置地址信誉
func (m *Manager) SetIPReputation(rep types.IPReputation) error {
	stored, err := m.reputations.Set(rep.Address, rep.Score)
	if err != nil {
		return err
	}
	if m.persist != nil {
		m.persistErr("set_reputation", m.persist.saveReputation(stored))
	}
	logger.Info("设置地址信誉", "addr", stored.Address, "score", stored.Score)
	return nil
}

// ResetIPReputation 恢复地址默认信誉
func (m *Manager) ResetIPReputation(addr string) error {
	a, err := parseAddr(addr)
	if err != nil {
		return err
	}
	rep, existed, err := m.reputations.Reset(a)
	if err != nil || !existed {
		return err
	}
	if m.persist != nil {
		m.persistErr("reset_reputation", m.persist.saveReputation(rep))
	}
	logger.Info("重置地址信誉", "addr", rep.Address)
	return nil
}

// ResetAllIPReputations 恢复全部默认信誉
func (m *Manager) ResetAllIPReputations() error {
	reps := m.reputations.ResetAll()
	if m.persist != nil {
		m.persistErr("reset_all_reputations", m.persist.saveReputations(reps))
	}
	logger.Info("重置全部地址信誉", "count", len(reps))
	return nil
}

// RemoveIPReputation 删除信誉记录
func (m *Manager) RemoveIPReputation(addr string) error {
	a, err := parseAddr(addr)
	if err != nil {
		return err
	}
	if err := m.reputations.Remove(a); err != nil {
		return err
	}
	if m.persist != nil {
		a, _ = normalizeAddr(a)
		m.persistErr("remove_reputation", m.persist.deleteReputation(types.IPReputation{Address: a}))
	}
	logger.Info("删除地址信誉", "addr", a)
	return nil
}

// UpdateIPReputation 按更新类型调整信誉
func (m *Manager) UpdateIPReputation(addr netip.Addr, update types.ReputationUpdate) error {
	rep, err := m.reputations.Update(addr, update)
	if err != nil {
		return err
	}
	if m.persist != nil {
		m.persistErr("update_reputation", m.persist.saveReputation(rep))
	}
	logger.Debug("更新地址信誉", "addr", rep.Address, "update", update, "score", rep.Score)
	return nil
}

// ============================================================================
//                              子网限制
// ============================================================================

// GetAllIPSubnetLimits 返回全部子网限制
func (m *Manager) GetAllIPSubnetLimits() ([]types.IPSubnetLimit, error) {
	return m.subnets.GetAll(), nil
}

// AddIPSubnetLimit 添加子网限制
func (m *Manager) AddIPSubnetLimit(family, cidrLeadingBits string, maxConnections int) error {
	f, ok := types.ParseAddressFamily(family)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAddressFamily, family)
	}
	return m.addSubnetLimit(f, cidrLeadingBits, maxConnections)
}

func (m *Manager) addSubnetLimit(family types.AddressFamily, cidrLeadingBits string, maxConnections int) error {
	l, err := m.subnets.Add(family, cidrLeadingBits, maxConnections)
	if err != nil {
		return err
	}
	if m.persist != nil {
		m.persistErr("add_subnet_limit", m.persist.saveSubnetLimit(l))
	}
	logger.Info("添加子网限制", "family", l.AddressFamily, "cidr", l.CIDRLeadingBits, "max", l.MaximumConnections)
	return nil
}

// RemoveIPSubnetLimit 删除子网限制
func (m *Manager) RemoveIPSubnetLimit(family, cidrLeadingBits string) error {
	f, ok := types.ParseAddressFamily(family)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAddressFamily, family)
	}
	l, err := m.subnets.Remove(f, cidrLeadingBits)
	if err != nil {
		return err
	}
	if m.persist != nil {
		m.persistErr("remove_subnet_limit", m.persist.deleteSubnetLimit(l))
	}
	logger.Info("删除子网限制", "family", l.AddressFamily, "cidr", l.CIDRLeadingBits)
	return nil
}

// SubnetStats 返回子网连接统计
func (m *Manager) SubnetStats() SubnetStats {
	return m.subnets.Stats()
}

// ============================================================================
//                              IP 过滤
// ============================================================================

// AddIPFilter 添加过滤规则
func (m *Manager) AddIPFilter(cidr string, typ types.IPFilterType) (types.IPFilterID, error) {
	f, err := m.filters.Add(cidr, typ)
	if err != nil {
		return 0, err
	}
	if m.persist != nil {
		m.persistErr("add_filter", m.persist.saveFilter(f))
	}
	logger.Info("添加 IP 过滤规则", "id", f.ID, "prefix", f.Prefix, "type", f.Type)
	return f.ID, nil
}

// RemoveIPFilter 删除过滤规则
func (m *Manager) RemoveIPFilter(id types.IPFilterID) error {
	if err := m.filters.Remove(id); err != nil {
		return err
	}
	if m.persist != nil {
		m.persistErr("remove_filter", m.persist.deleteFilter(id))
	}
	logger.Info("删除 IP 过滤规则", "id", id)
	return nil
}

// GetAllIPFilters 返回全部过滤规则
func (m *Manager) GetAllIPFilters() ([]types.IPFilter, error) {
	return m.filters.GetAll(), nil
}

// IsIPAllowed 检查地址是否通过过滤
func (m *Manager) IsIPAllowed(addr netip.Addr) bool {
	return m.filters.IsAllowed(addr)
}

// ============================================================================
//                              准入判定
// ============================================================================

// AdmitConnection 判定连接是否准入
//
// 允许时已占用子网名额，调用方在连接结束时必须调用 ReleaseConnection。
// 频率限制只作用于入站连接。
func (m *Manager) AdmitConnection(addr netip.Addr, dir types.Direction) types.AdmissionVerdict {
	v := m.admit(addr, dir)

	if m.recorder != nil {
		m.recorder.RecordAdmission(dir, v)
	}
	if !v.Allowed {
		logger.Debug("拒绝连接", "addr", addr, "direction", dir, "reason", v.Reason, "score", v.Score)
		if m.denied != nil {
			_ = m.denied.Emit(types.EvtAdmissionDenied{
				Address:   addr,
				Direction: dir,
				Reason:    v.Reason,
				Score:     v.Score,
				Timestamp: m.clock.Now(),
			})
		}
	}
	return v
}

func (m *Manager) admit(addr netip.Addr, dir types.Direction) types.AdmissionVerdict {
	if !addr.IsValid() {
		return types.Deny(types.DenyInvalidAddress, 0)
	}

	if !m.filters.IsAllowed(addr) {
		return types.Deny(types.DenyIPFilter, 0)
	}

	if dir == types.DirInbound && !m.attempts.Allow(addr) {
		rep, err := m.reputations.Update(addr, types.ReputationDeteriorateMinimal)
		if err == nil && m.persist != nil {
			m.persistErr("update_reputation", m.persist.saveReputation(rep))
		}
		return types.Deny(types.DenyConnectionAttempts, rep.Score)
	}

	score, ok := m.reputations.IsAcceptable(addr)
	if !ok {
		return types.Deny(types.DenyReputation, score)
	}

	if !m.subnets.Acquire(addr) {
		return types.Deny(types.DenySubnetLimit, score)
	}
	return types.Admit(score)
}

// ReleaseConnection 释放子网名额
func (m *Manager) ReleaseConnection(addr netip.Addr) {
	m.subnets.Release(addr)
}

var _ pkgif.AccessManager = (*Manager)(nil)
