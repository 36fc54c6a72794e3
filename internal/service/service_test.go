package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"drift_go/internal/chain"
	"drift_go/internal/infra/drift"
	"drift_go/internal/registry"
)

// Shared fakes for the ledger collaborators. Each test wires only the
// accounts and prices it needs; submissions are captured, not executed.

type fakeReader struct {
	accounts map[chain.Address][]byte
	fetches  int
}

func newFakeReader() *fakeReader {
	return &fakeReader{accounts: make(map[chain.Address][]byte)}
}

func (r *fakeReader) Fetch(_ context.Context, addr chain.Address) ([]byte, bool, error) {
	r.fetches++
	data, ok := r.accounts[addr]
	return data, ok, nil
}

type submission struct {
	ixs     []chain.Instruction
	signers []chain.Address
}

type fakeSubmitter struct {
	submissions []submission
	failNext    error
}

func (s *fakeSubmitter) Submit(_ context.Context, ixs []chain.Instruction, signers []chain.Address) (chain.Signature, error) {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return "", err
	}
	s.submissions = append(s.submissions, submission{ixs: ixs, signers: signers})
	return chain.Signature(fmt.Sprintf("sig-%d", len(s.submissions))), nil
}

type fakeOracle struct {
	prices map[uint16]decimal.Decimal
	calls  int
}

func (o *fakeOracle) GetPrice(_ context.Context, marketIndex uint16) (chain.OraclePrice, error) {
	o.calls++
	p, ok := o.prices[marketIndex]
	if !ok {
		return chain.OraclePrice{}, fmt.Errorf("no price for market %d", marketIndex)
	}
	return chain.OraclePrice{Price: p}, nil
}

type testEnv struct {
	factory   *Factory
	reader    *fakeReader
	submitter *fakeSubmitter
	oracle    *fakeOracle
	client    *drift.Client
}

func addr(s string) chain.Address {
	var a chain.Address
	copy(a[:], s)
	return a
}

func newTestEnv() *testEnv {
	reader := newFakeReader()
	submitter := &fakeSubmitter{}
	oracle := &fakeOracle{prices: make(map[uint16]decimal.Decimal)}
	client := drift.NewClient(addr("program"), addr("vault_program"), reader)

	return &testEnv{
		factory: &Factory{
			Registry:  registry.New(registry.Defaults()),
			Client:    client,
			Submitter: submitter,
			Oracle:    oracle,
		},
		reader:    reader,
		submitter: submitter,
		oracle:    oracle,
		client:    client,
	}
}

// putUser stores an encoded user account at the owner's derived address.
func (e *testEnv) putUser(owner chain.Address, u *drift.UserAccount) {
	e.reader.accounts[e.client.DeriveUserAddress(owner)] = u.Encode()
}

// putVault stores an encoded vault account at its name-derived address.
func (e *testEnv) putVault(name string, v *drift.VaultAccount) chain.Address {
	vaultAddr := e.client.DeriveVaultAddress(name)
	copy(v.Name[:], name)
	e.reader.accounts[vaultAddr] = v.Encode()
	return vaultAddr
}

// putDepositor stores an encoded depositor record.
func (e *testEnv) putDepositor(vault, owner chain.Address, d *drift.VaultDepositorAccount) {
	e.reader.accounts[e.client.DeriveDepositorAddress(vault, owner)] = d.Encode()
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
