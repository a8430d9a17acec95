package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	acct, err := Require(Account{Address: "0xAbC", Connected: true})
	require.NoError(t, err)
	assert.Equal(t, "0xAbC", acct.Address)

	_, err = Require(Account{})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = Require(Account{Connected: true, Address: "  "})
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress("0xABCdef", "0xabcDEF"))
	assert.False(t, SameAddress("0xabc", "0xdef"))
}
