// Package chain defines the contracts this layer consumes from the
// ledger: transaction submission, fresh account reads, and price feeds.
// Wallets, signing, blockhash handling and RPC mechanics live behind
// these interfaces and are not re-implemented here.
package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrBadAddress is returned when parsing a malformed address string.
var ErrBadAddress = errors.New("address must be 32 bytes")

// Address is a 32-byte ledger account address, rendered as hex.
type Address [32]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressFromString parses the hex form produced by String. Shorter
// inputs are rejected.
func AddressFromString(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(b) != len(a) {
		return a, ErrBadAddress
	}
	copy(a[:], b)
	return a, nil
}

// Signature identifies a confirmed transaction.
type Signature string

// AccountMeta references one account an instruction touches.
type AccountMeta struct {
	Address  Address
	Signer   bool
	Writable bool
}

// Instruction is one program invocation. Instructions submitted together
// form a single atomic transaction: either all apply or none do.
type Instruction struct {
	ProgramID Address
	Accounts  []AccountMeta
	Data      []byte
}

// Submitter hands a built transaction to the signing/RPC collaborator
// and blocks until the ledger confirms or the call fails. No retries
// happen below this interface; a failure is reported once, upward.
type Submitter interface {
	Submit(ctx context.Context, ixs []Instruction, signers []Address) (Signature, error)
}

// AccountReader fetches the current raw state of an account. A missing
// account is a valid state, reported via exists=false, not an error.
type AccountReader interface {
	Fetch(ctx context.Context, addr Address) (data []byte, exists bool, err error)
}

// OraclePrice is one price observation from the oracle feed.
type OraclePrice struct {
	Price      decimal.Decimal
	Confidence decimal.Decimal
	UpdatedAt  time.Time
}

// PriceOracle supplies the current oracle price for a market. Only the
// price is consumed by the order builder.
type PriceOracle interface {
	GetPrice(ctx context.Context, marketIndex uint16) (OraclePrice, error)
}

// Derive computes a deterministic program-derived address from a program
// identifier and an ordered seed list. Pure; no network access.
func Derive(program Address, seeds ...[]byte) Address {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte("ProgramDerivedAddress"))

	var out Address
	copy(out[:], h.Sum(nil))
	return out
}
