package whitelist

import (
	"github.com/ethereum/go-ethereum/common"
)

// Routers is the set of external exchange routers a swap may be forwarded to.
// Membership is the only admissibility gate for a router address.
type Routers struct {
	set *Set[string]
}

func NewRouters(initial ...common.Address) *Routers {
	r := &Routers{set: NewSet[string]()}
	r.SetDexes(initial)
	return r
}

// SetDexes adds every address; existing members are kept.
func (r *Routers) SetDexes(addrs []common.Address) {
	for _, a := range addrs {
		r.set.Add(key(a))
	}
}

// RemoveDex reports whether addr was whitelisted.
func (r *Routers) RemoveDex(addr common.Address) bool {
	return r.set.Remove(key(addr))
}

func (r *Routers) IsSupported(addr common.Address) bool {
	return r.set.Contains(key(addr))
}

func (r *Routers) List() []common.Address {
	members := r.set.Members()
	out := make([]common.Address, len(members))
	for i, m := range members {
		out[i] = common.HexToAddress(m)
	}
	return out
}

func key(a common.Address) string {
	return a.Hex()
}
