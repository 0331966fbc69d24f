package access

import (
	"fmt"

	"github.com/doytsujin/QuantumGate/internal/core/storage/kv"
	"github.com/doytsujin/QuantumGate/pkg/types"
)

// 存储键前缀（相对于 access 的 Store）
var (
	prefixReputation = []byte("r/")
	prefixSubnet     = []byte("s/")
	prefixFilter     = []byte("f/")
)

// persister 将访问控制表写入 KV 存储
//
// 键布局：
//
//	r/<address>          -> IPReputation
//	s/<family><bits>     -> IPSubnetLimit   例如 s/IPv4/24
//	f/<id>               -> IPFilter        id 为 20 位十进制
type persister struct {
	reputations *kv.Store
	subnets     *kv.Store
	filters     *kv.Store
}

func newPersister(store *kv.Store) *persister {
	return &persister{
		reputations: store.SubStore(prefixReputation),
		subnets:     store.SubStore(prefixSubnet),
		filters:     store.SubStore(prefixFilter),
	}
}

func reputationKey(rep types.IPReputation) []byte {
	return []byte(rep.Address.String())
}

func subnetKey(l types.IPSubnetLimit) []byte {
	return []byte(l.AddressFamily.String() + l.CIDRLeadingBits)
}

func filterKey(id types.IPFilterID) []byte {
	return []byte(fmt.Sprintf("%020d", uint64(id)))
}

func (p *persister) saveReputation(rep types.IPReputation) error {
	return p.reputations.PutJSON(reputationKey(rep), rep)
}

func (p *persister) saveReputations(reps []types.IPReputation) error {
	if len(reps) == 0 {
		return nil
	}
	b := p.reputations.NewBatch()
	for _, rep := range reps {
		if err := b.PutJSON(reputationKey(rep), rep); err != nil {
			return err
		}
	}
	return b.Write()
}

func (p *persister) deleteReputation(rep types.IPReputation) error {
	return p.reputations.Delete(reputationKey(rep))
}

func (p *persister) saveSubnetLimit(l types.IPSubnetLimit) error {
	return p.subnets.PutJSON(subnetKey(l), l)
}

func (p *persister) deleteSubnetLimit(l types.IPSubnetLimit) error {
	return p.subnets.Delete(subnetKey(l))
}

func (p *persister) saveFilter(f types.IPFilter) error {
	return p.filters.PutJSON(filterKey(f.ID), f)
}

func (p *persister) deleteFilter(id types.IPFilterID) error {
	return p.filters.Delete(filterKey(id))
}

// loadInto 把存储中的全部记录载入内存表
func (p *persister) loadInto(reps *ReputationStore, subnets *SubnetLimitStore, filters *FilterStore) error {
	err := p.reputations.ScanJSON(nil,
		func() interface{} { return &types.IPReputation{} },
		func(_ []byte, v interface{}) bool {
			reps.load(*v.(*types.IPReputation))
			return true
		})
	if err != nil {
		return fmt.Errorf("load reputations: %w", err)
	}

	var loadErr error
	err = p.subnets.ScanJSON(nil,
		func() interface{} { return &types.IPSubnetLimit{} },
		func(_ []byte, v interface{}) bool {
			l := v.(*types.IPSubnetLimit)
			if _, err := subnets.Add(l.AddressFamily, l.CIDRLeadingBits, l.MaximumConnections); err != nil {
				loadErr = fmt.Errorf("subnet limit %s%s: %w", l.AddressFamily, l.CIDRLeadingBits, err)
				return false
			}
			return true
		})
	if err != nil {
		return fmt.Errorf("load subnet limits: %w", err)
	}
	if loadErr != nil {
		return loadErr
	}

	err = p.filters.ScanJSON(nil,
		func() interface{} { return &types.IPFilter{} },
		func(_ []byte, v interface{}) bool {
			filters.load(*v.(*types.IPFilter))
			return true
		})
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}
	return nil
}
