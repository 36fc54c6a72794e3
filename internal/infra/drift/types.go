package drift

import (
	"encoding/binary"
	"fmt"
	"strings"

	"drift_go/internal/chain"
)

// On-chain account layouts. All integers are little-endian. Decoders are
// strict about minimum length and tolerate trailing padding, matching
// how the program reserves space for future fields.

// PerpPosition is one open perpetual position as stored on-chain.
type PerpPosition struct {
	MarketIndex     uint16
	BaseAssetAmount int64 // base precision; negative = short
	QuoteEntry      int64 // quote precision
	SettledPnL      int64 // quote precision
}

// SpotPosition is one spot balance entry as stored on-chain.
type SpotPosition struct {
	MarketIndex        uint16
	ScaledBalance      uint64 // market precision
	CumulativeDeposits uint64 // market precision
}

// UserAccount is the trading account layout.
type UserAccount struct {
	Authority      chain.Address
	TotalDeposits  uint64 // quote precision
	TotalWithdraws uint64 // quote precision
	SettledPnL     int64  // quote precision
	PerpPositions  []PerpPosition
	SpotPositions  []SpotPosition
}

// VaultAccount is the pooled vault layout.
type VaultAccount struct {
	Name                   [32]byte
	Manager                chain.Address
	Delegate               chain.Address
	SpotMarketIndex        uint16
	RedeemPeriodSec        int64
	MaxTokens              uint64 // market precision
	MinDepositAmount       uint64 // market precision
	ManagementFee          uint64 // percentage precision
	ProfitShare            uint64 // percentage precision
	HurdleRate             uint64 // percentage precision
	Permissioned           bool
	NetDeposits            int64  // market precision
	TotalWithdrawRequested uint64 // market precision
	SharesSupply           uint64
}

// NameString strips the zero padding from the fixed-width name field.
func (v *VaultAccount) NameString() string {
	return strings.TrimRight(string(v.Name[:]), "\x00")
}

// VaultDepositorAccount is the per-(vault, depositor) record.
type VaultDepositorAccount struct {
	Vault                  chain.Address
	Authority              chain.Address
	Shares                 uint64
	LastWithdrawRequestVal uint64 // shares
	LastWithdrawRequestTs  int64
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) need(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("account data truncated at offset %d (need %d of %d)", r.off, n, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u16() uint16 {
	b := r.need(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u64() uint64 {
	b := r.need(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) bool() bool {
	b := r.need(1)
	return b != nil && b[0] != 0
}

func (r *reader) address() chain.Address {
	var a chain.Address
	b := r.need(32)
	if b != nil {
		copy(a[:], b)
	}
	return a
}

// DecodeUserAccount parses a raw user account.
func DecodeUserAccount(data []byte) (*UserAccount, error) {
	r := &reader{buf: data}
	u := &UserAccount{
		Authority:      r.address(),
		TotalDeposits:  r.u64(),
		TotalWithdraws: r.u64(),
		SettledPnL:     r.i64(),
	}
	nPerp := int(r.u16())
	for i := 0; i < nPerp && r.err == nil; i++ {
		u.PerpPositions = append(u.PerpPositions, PerpPosition{
			MarketIndex:     r.u16(),
			BaseAssetAmount: r.i64(),
			QuoteEntry:      r.i64(),
			SettledPnL:      r.i64(),
		})
	}
	nSpot := int(r.u16())
	for i := 0; i < nSpot && r.err == nil; i++ {
		u.SpotPositions = append(u.SpotPositions, SpotPosition{
			MarketIndex:        r.u16(),
			ScaledBalance:      r.u64(),
			CumulativeDeposits: r.u64(),
		})
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode user account: %w", r.err)
	}
	return u, nil
}

// Encode serializes the account layout. The ledger writes these; the
// client only encodes for tests and local fakes.
func (u *UserAccount) Encode() []byte {
	w := newWriter()
	w.address(u.Authority)
	w.u64(u.TotalDeposits)
	w.u64(u.TotalWithdraws)
	w.i64(u.SettledPnL)
	w.u16(uint16(len(u.PerpPositions)))
	for _, p := range u.PerpPositions {
		w.u16(p.MarketIndex)
		w.i64(p.BaseAssetAmount)
		w.i64(p.QuoteEntry)
		w.i64(p.SettledPnL)
	}
	w.u16(uint16(len(u.SpotPositions)))
	for _, s := range u.SpotPositions {
		w.u16(s.MarketIndex)
		w.u64(s.ScaledBalance)
		w.u64(s.CumulativeDeposits)
	}
	return w.bytes()
}

// DecodeVaultAccount parses a raw vault account.
func DecodeVaultAccount(data []byte) (*VaultAccount, error) {
	r := &reader{buf: data}
	v := &VaultAccount{}
	if b := r.need(32); b != nil {
		copy(v.Name[:], b)
	}
	v.Manager = r.address()
	v.Delegate = r.address()
	v.SpotMarketIndex = r.u16()
	v.RedeemPeriodSec = r.i64()
	v.MaxTokens = r.u64()
	v.MinDepositAmount = r.u64()
	v.ManagementFee = r.u64()
	v.ProfitShare = r.u64()
	v.HurdleRate = r.u64()
	v.Permissioned = r.bool()
	v.NetDeposits = r.i64()
	v.TotalWithdrawRequested = r.u64()
	v.SharesSupply = r.u64()
	if r.err != nil {
		return nil, fmt.Errorf("decode vault account: %w", r.err)
	}
	return v, nil
}

// Encode serializes the vault layout (tests and local fakes only).
func (v *VaultAccount) Encode() []byte {
	w := newWriter()
	w.raw(v.Name[:])
	w.address(v.Manager)
	w.address(v.Delegate)
	w.u16(v.SpotMarketIndex)
	w.i64(v.RedeemPeriodSec)
	w.u64(v.MaxTokens)
	w.u64(v.MinDepositAmount)
	w.u64(v.ManagementFee)
	w.u64(v.ProfitShare)
	w.u64(v.HurdleRate)
	w.bool(v.Permissioned)
	w.i64(v.NetDeposits)
	w.u64(v.TotalWithdrawRequested)
	w.u64(v.SharesSupply)
	return w.bytes()
}

// DecodeVaultDepositor parses a raw depositor record.
func DecodeVaultDepositor(data []byte) (*VaultDepositorAccount, error) {
	r := &reader{buf: data}
	d := &VaultDepositorAccount{
		Vault:                  r.address(),
		Authority:              r.address(),
		Shares:                 r.u64(),
		LastWithdrawRequestVal: r.u64(),
		LastWithdrawRequestTs:  r.i64(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode vault depositor: %w", r.err)
	}
	return d, nil
}

// Encode serializes the depositor layout (tests and local fakes only).
func (d *VaultDepositorAccount) Encode() []byte {
	w := newWriter()
	w.address(d.Vault)
	w.address(d.Authority)
	w.u64(d.Shares)
	w.u64(d.LastWithdrawRequestVal)
	w.i64(d.LastWithdrawRequestTs)
	return w.bytes()
}

type writer struct {
	buf []byte
}

func newWriter() *writer {
	return &writer{buf: make([]byte, 0, 128)}
}

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) address(a chain.Address) {
	w.buf = append(w.buf, a[:]...)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) i64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *writer) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) bytes() []byte {
	return w.buf
}
