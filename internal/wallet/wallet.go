// Package wallet models the signing identity bound to a session. The
// account is an explicit value carried into every mutation path, bound at
// connect and cleared at disconnect; it is never ambient state.
package wallet

import "strings"

// Account is the caller's ledger identity.
type Account struct {
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
}

// Require is the precondition check in front of every mutation. An unsigned
// mutation attempt has no useful failure semantics at the ledger layer, so
// the write gateway never submits without a successful Require.
func Require(acct Account) (Account, error) {
	if !acct.Connected {
		return Account{}, ErrNotConnected
	}
	if strings.TrimSpace(acct.Address) == "" {
		return Account{}, ErrNoAddress
	}
	return acct, nil
}

// SameAddress compares two ledger identities case-insensitively, the way
// the ledger does.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
