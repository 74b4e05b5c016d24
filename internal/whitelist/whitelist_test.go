package whitelist

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet[uint64](3, 1)
	s.Add(2, 3)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []uint64{1, 2, 3}, s.Members())
	assert.True(t, s.Remove(2))
	assert.False(t, s.Remove(2))
	assert.False(t, s.Contains(2))
	assert.True(t, s.Contains(3))
}

func TestRouters(t *testing.T) {
	a := common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	b := common.HexToAddress("0x05fF2B0DB69458A0750badebc4f9e13aDd608C7F")

	r := NewRouters(a)
	assert.True(t, r.IsSupported(a))
	assert.False(t, r.IsSupported(b))

	r.SetDexes([]common.Address{a, b})
	assert.Len(t, r.List(), 2)
	assert.ElementsMatch(t, []common.Address{a, b}, r.List())

	assert.True(t, r.RemoveDex(a))
	assert.False(t, r.RemoveDex(a))
	assert.Equal(t, []common.Address{b}, r.List())
}
