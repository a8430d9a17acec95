package wallet

import "errors"

var (
	ErrNotConnected = errors.New("Please connect your wallet to perform this action")
	ErrNoAddress    = errors.New("No wallet address found. Please reconnect your wallet")
)
