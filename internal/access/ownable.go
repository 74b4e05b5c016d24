package access

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotOwner is returned for every owner-gated operation invoked by anyone else.
	ErrNotOwner  = errors.New("ownable: caller is not the owner")
	ErrZeroOwner = errors.New("ownable: new owner is the zero address")
)

// Ownable is a single-owner gate.
type Ownable struct {
	mu    sync.RWMutex
	owner common.Address
}

func NewOwnable(owner common.Address) *Ownable {
	return &Ownable{owner: owner}
}

func (o *Ownable) Owner() common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.owner
}

// Check fails with ErrNotOwner unless caller is the current owner.
func (o *Ownable) Check(caller common.Address) error {
	if caller != o.Owner() {
		return ErrNotOwner
	}
	return nil
}

// TransferOwnership hands the gate to newOwner in a single step.
func (o *Ownable) TransferOwnership(caller, newOwner common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if caller != o.owner {
		return ErrNotOwner
	}
	if newOwner == (common.Address{}) {
		return ErrZeroOwner
	}
	o.owner = newOwner
	return nil
}
