package access

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnable(t *testing.T) {
	owner := common.HexToAddress("0x01")
	other := common.HexToAddress("0x02")
	o := NewOwnable(owner)

	assert.NoError(t, o.Check(owner))
	assert.ErrorIs(t, o.Check(other), ErrNotOwner)

	assert.ErrorIs(t, o.TransferOwnership(other, other), ErrNotOwner)
	assert.ErrorIs(t, o.TransferOwnership(owner, common.Address{}), ErrZeroOwner)
	assert.Equal(t, owner, o.Owner())

	require.NoError(t, o.TransferOwnership(owner, other))
	assert.Equal(t, other, o.Owner())
	assert.ErrorIs(t, o.Check(owner), ErrNotOwner)
}
