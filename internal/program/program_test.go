package program

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/events"
	"solana-blog-pass/internal/idhash"
	"solana-blog-pass/internal/ledger"
	"solana-blog-pass/internal/storage/memory"
)

const (
	testFee = 1_000_000
	testURI = "ipfs://meta"
	sol     = 1_000_000_000
)

var testProgramID = address.MustParse("2KH5fQNCT2BNLqcdVDzi4kCjWhBW9Js4VXXWEjjYt4xu")

type fixture struct {
	ctx    context.Context
	ledger *ledger.Ledger
	prog   *Program
	events *memory.EventStore
	states *memory.StateStore
	owner  address.Pubkey
	state  *domain.BlogState
}

func newWallet(t *testing.T) address.Pubkey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := address.FromBytes(pub)
	require.NoError(t, err)
	return pk
}

// newFixture initializes a blog with testFee and testURI (scenario A setup).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		ledger: ledger.New(testProgramID),
		events: memory.NewEventStore(),
		states: memory.NewStateStore(),
	}
	f.prog = New(testProgramID, f.ledger,
		WithPublisher(events.NewStoreSink("memory", f.events)),
		WithStateStore(f.states),
	)

	f.owner = f.funded(t, 10*sol)
	res, err := f.prog.Initialize(f.ctx, f.owner, testFee, testURI)
	require.NoError(t, err)
	f.state = res.State
	return f
}

func (f *fixture) funded(t *testing.T, lamports uint64) address.Pubkey {
	t.Helper()
	w := newWallet(t)
	_, err := f.ledger.Airdrop(f.ctx, w, lamports)
	require.NoError(t, err)
	return w
}

func (f *fixture) committed(t *testing.T) *domain.BlogState {
	t.Helper()
	st, err := f.ledger.State(f.state.Address)
	require.NoError(t, err)
	return st
}

func (f *fixture) premiumHolding(t *testing.T, holder address.Pubkey) *domain.TokenHolding {
	t.Helper()
	h, err := f.ledger.Holding(f.state.PremiumMint, holder)
	require.NoError(t, err)
	return h
}

func TestInitialize_ScenarioA(t *testing.T) {
	f := newFixture(t)
	st := f.committed(t)

	assert.Equal(t, f.owner, st.Authority)
	assert.Equal(t, uint64(testFee), st.PremiumFee)
	assert.Equal(t, testURI, st.URI)
	assert.False(t, st.Paused)
	assert.Zero(t, st.TotalStandardMinted)
	assert.Zero(t, st.TotalPremiumMinted)

	addr, bump, err := f.prog.StateAddress(f.owner)
	require.NoError(t, err)
	assert.Equal(t, addr, st.Address)
	assert.Equal(t, bump, st.Bump)

	for _, mint := range []address.Pubkey{st.StandardMint, st.PremiumMint} {
		m, err := f.ledger.Mint(mint)
		require.NoError(t, err)
		assert.Equal(t, st.Address, m.MintAuthority)
		assert.Equal(t, st.Address, m.FreezeAuthority)
		assert.Zero(t, m.Decimals)
	}

	assert.Equal(t, f.ledger.Rent().MinimumBalance(domain.BlogStateSpace), f.ledger.Balance(st.Address))

	mirrored, err := f.states.GetByAddress(f.ctx, st.Address)
	require.NoError(t, err)
	assert.Equal(t, st.UpdatedSlot, mirrored.UpdatedSlot)
}

func TestInitialize_Validation(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(testProgramID)
	prog := New(testProgramID, l)

	tests := []struct {
		name string
		fee  uint64
		uri  string
		want error
	}{
		{"zero fee", 0, testURI, ErrInvalidNewFee},
		{"zero fee checked before uri", 0, "", ErrInvalidNewFee},
		{"empty uri", testFee, "", ErrEmptyURI},
		{"uri too long", testFee, strings.Repeat("a", domain.MaxURILength+1), ErrURITooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := newWallet(t)
			_, err := l.Airdrop(ctx, owner, sol)
			require.NoError(t, err)

			_, err = prog.Initialize(ctx, owner, tt.fee, tt.uri)
			assert.ErrorIs(t, err, tt.want)

			addr, _, err := prog.StateAddress(owner)
			require.NoError(t, err)
			_, err = l.State(addr)
			assert.ErrorIs(t, err, chain.ErrAccountNotFound, "rejected initialize must leave no record")
		})
	}
}

func TestInitialize_MaxLengthURI(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(testProgramID)
	prog := New(testProgramID, l)

	owner := newWallet(t)
	_, err := l.Airdrop(ctx, owner, sol)
	require.NoError(t, err)

	uri := strings.Repeat("a", domain.MaxURILength)
	res, err := prog.Initialize(ctx, owner, testFee, uri)
	require.NoError(t, err)
	assert.Equal(t, uri, res.State.URI)
}

func TestInitialize_Twice(t *testing.T) {
	f := newFixture(t)

	_, err := f.prog.Initialize(f.ctx, f.owner, testFee+1, "ipfs://other")
	assert.ErrorIs(t, err, chain.ErrAccountInUse)

	st := f.committed(t)
	assert.Equal(t, uint64(testFee), st.PremiumFee)
	assert.Equal(t, testURI, st.URI)
}

func TestOwnerControls_Unauthorized(t *testing.T) {
	f := newFixture(t)
	outsider := f.funded(t, sol)
	before := *f.committed(t)

	ops := map[string]func() error{
		"pause": func() error {
			_, err := f.prog.Pause(f.ctx, outsider, f.owner)
			return err
		},
		"unpause": func() error {
			_, err := f.prog.Unpause(f.ctx, outsider, f.owner)
			return err
		},
		"fee": func() error {
			_, err := f.prog.UpdatePremiumFee(f.ctx, outsider, f.owner, testFee+1)
			return err
		},
		"uri": func() error {
			_, err := f.prog.ModifyURI(f.ctx, outsider, f.owner, "https://bad.example")
			return err
		},
		"withdraw": func() error {
			_, err := f.prog.Withdraw(f.ctx, outsider, f.owner, outsider)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), ErrUnauthorized)
		})
	}

	assert.Equal(t, before, *f.committed(t))
}

func TestPauseUnpause(t *testing.T) {
	f := newFixture(t)

	res, err := f.prog.Pause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)
	assert.True(t, res.State.Paused)

	// Pausing twice is allowed.
	_, err = f.prog.Pause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)
	assert.True(t, f.committed(t).Paused)

	res, err = f.prog.Unpause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)
	assert.False(t, res.State.Paused)

	_, err = f.prog.Unpause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)
	assert.False(t, f.committed(t).Paused)
}

func TestUpdatePremiumFee(t *testing.T) {
	f := newFixture(t)

	res, err := f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, testFee+10)
	require.NoError(t, err)
	assert.Equal(t, uint64(testFee+10), res.State.PremiumFee)

	_, err = f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, 0)
	assert.ErrorIs(t, err, ErrInvalidNewFee)

	_, err = f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, testFee+10)
	assert.ErrorIs(t, err, ErrInvalidNewFee)

	_, err = f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, testFee)
	require.NoError(t, err)
	assert.Equal(t, uint64(testFee), f.committed(t).PremiumFee)
}

func TestUpdatePremiumFee_ScenarioD(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)

	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "ipfs://x")
	require.NoError(t, err)

	_, err = f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, testFee)
	assert.ErrorIs(t, err, ErrInvalidNewFee)
}

func TestModifyURI(t *testing.T) {
	f := newFixture(t)

	res, err := f.prog.ModifyURI(f.ctx, f.owner, f.owner, "https://blog.test/v2/")
	require.NoError(t, err)
	assert.Equal(t, "https://blog.test/v2/", res.State.URI)

	_, err = f.prog.ModifyURI(f.ctx, f.owner, f.owner, "")
	assert.ErrorIs(t, err, ErrEmptyURI)

	_, err = f.prog.ModifyURI(f.ctx, f.owner, f.owner, strings.Repeat("u", domain.MaxURILength+1))
	assert.ErrorIs(t, err, ErrURITooLong)

	assert.Equal(t, "https://blog.test/v2/", f.committed(t).URI)
}

func TestMintStandard_Free(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)
	stateBalance := f.ledger.Balance(f.state.Address)

	res, err := f.prog.MintStandard(f.ctx, user, f.owner, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Notifications, "no fundsReceived without a donation")
	assert.Equal(t, uint64(1), res.State.TotalStandardMinted)

	h, err := f.ledger.Holding(f.state.StandardMint, user)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Amount)
	assert.False(t, h.Frozen)
	assert.Equal(t, stateBalance, f.ledger.Balance(f.state.Address))
}

func TestMintStandard_Donation(t *testing.T) {
	f := newFixture(t)
	donor := f.funded(t, sol)
	stateBalance := f.ledger.Balance(f.state.Address)

	res, err := f.prog.MintStandard(f.ctx, donor, f.owner, 250_000_000)
	require.NoError(t, err)

	require.Len(t, res.Notifications, 1)
	n := res.Notifications[0]
	assert.Equal(t, domain.KindFundsReceived, n.Kind)
	assert.Equal(t, donor, n.Account)
	assert.Equal(t, uint64(250_000_000), n.Amount)
	assert.Equal(t, res.Receipt.Slot, n.Slot)
	assert.Equal(t, idhash.ComputeNotificationID(f.state.Address, n.Slot, 0, n.Kind), n.ID)

	assert.Equal(t, stateBalance+250_000_000, f.ledger.Balance(f.state.Address))

	stored, err := f.events.GetByState(f.ctx, f.state.Address)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)
}

func TestMintStandard_DonationExceedsBalance(t *testing.T) {
	f := newFixture(t)
	donor := f.funded(t, 5_000_000)

	_, err := f.prog.MintStandard(f.ctx, donor, f.owner, 10_000_000)
	assert.ErrorIs(t, err, chain.ErrInsufficientFunds)

	assert.Zero(t, f.committed(t).TotalStandardMinted)
	_, err = f.ledger.Holding(f.state.StandardMint, donor)
	assert.ErrorIs(t, err, chain.ErrAccountNotFound)

	stored, err := f.events.GetByState(f.ctx, f.state.Address)
	require.NoError(t, err)
	assert.Empty(t, stored, "rejected instruction must not publish")
}

func TestMint_Paused_ScenarioE(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)

	_, err := f.prog.Pause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)

	_, err = f.prog.MintStandard(f.ctx, user, f.owner, 0)
	assert.ErrorIs(t, err, ErrPaused)

	// Paused wins over every other input error.
	_, err = f.prog.MintPremium(f.ctx, user, f.owner, 0, strings.Repeat("x", domain.MaxURILength+1))
	assert.ErrorIs(t, err, ErrPaused)

	_, err = f.prog.Unpause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)

	_, err = f.prog.MintStandard(f.ctx, user, f.owner, 0)
	assert.NoError(t, err)
}

func TestMintPremium_ScenarioBC(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)

	// B: underpayment.
	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, 500_000, "ipfs://x")
	assert.ErrorIs(t, err, ErrLessThanPremiumFee)

	// C: exact fee.
	stateBalance := f.ledger.Balance(f.state.Address)
	res, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "ipfs://x")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.State.TotalPremiumMinted)

	h := f.premiumHolding(t, buyer)
	assert.Equal(t, uint64(1), h.Amount)
	assert.True(t, h.Frozen)
	assert.Equal(t, stateBalance+testFee, f.ledger.Balance(f.state.Address))

	require.Len(t, res.Notifications, 1)
	n := res.Notifications[0]
	assert.Equal(t, domain.KindPremiumReceived, n.Kind)
	assert.Equal(t, buyer, n.Account)
	assert.Equal(t, "ipfs://x", n.TokenURI)
}

func TestMintPremium_Overpayment(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)
	stateBalance := f.ledger.Balance(f.state.Address)

	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, 3*testFee, "")
	require.NoError(t, err)
	assert.Equal(t, stateBalance+3*testFee, f.ledger.Balance(f.state.Address), "full payment is captured")
}

func TestMintPremium_TokenURITooLong(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)

	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, strings.Repeat("x", domain.MaxURILength+1))
	assert.ErrorIs(t, err, ErrURITooLong)

	_, err = f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, strings.Repeat("x", domain.MaxURILength))
	assert.NoError(t, err)
}

func TestMintPremium_RepeatThawsAndRefreezes(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)

	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "ipfs://first")
	require.NoError(t, err)
	res, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "ipfs://second")
	require.NoError(t, err)

	h := f.premiumHolding(t, buyer)
	assert.Equal(t, uint64(2), h.Amount)
	assert.True(t, h.Frozen)
	assert.Equal(t, uint64(2), res.State.TotalPremiumMinted)
	assert.Equal(t, "ipfs://second", res.Notifications[0].TokenURI)

	m, err := f.ledger.Mint(f.state.PremiumMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.Supply)
}

func TestPremiumToken_NotTransferable(t *testing.T) {
	f := newFixture(t)
	buyer := f.funded(t, sol)
	recipient := newWallet(t)

	_, err := f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "https://premium.uri")
	require.NoError(t, err)

	_, err = f.ledger.TransferToken(f.ctx, f.state.PremiumMint, buyer, recipient, 1)
	assert.ErrorIs(t, err, chain.ErrAccountFrozen)
}

func TestStandardToken_Transferable(t *testing.T) {
	f := newFixture(t)
	sender := f.funded(t, sol)
	recipient := newWallet(t)

	_, err := f.prog.MintStandard(f.ctx, sender, f.owner, 0)
	require.NoError(t, err)

	_, err = f.ledger.TransferToken(f.ctx, f.state.StandardMint, sender, recipient, 1)
	require.NoError(t, err)

	src, err := f.ledger.Holding(f.state.StandardMint, sender)
	require.NoError(t, err)
	dst, err := f.ledger.Holding(f.state.StandardMint, recipient)
	require.NoError(t, err)
	assert.Zero(t, src.Amount)
	assert.Equal(t, uint64(1), dst.Amount)
}

// setCounters writes issued counters directly, bypassing the program.
func setCounters(t *testing.T, f *fixture, standard, premium uint64) {
	t.Helper()
	_, err := f.ledger.Execute(f.ctx, nil, func(rt chain.Runtime) error {
		st, err := rt.LoadState(f.state.Address)
		if err != nil {
			return err
		}
		st.TotalStandardMinted = standard
		st.TotalPremiumMinted = premium
		return rt.SaveState(st)
	})
	require.NoError(t, err)
}

func TestMint_SupplyOverflow(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)
	setCounters(t, f, math.MaxUint64, math.MaxUint64)
	userBalance := f.ledger.Balance(user)

	_, err := f.prog.MintStandard(f.ctx, user, f.owner, 1000)
	assert.ErrorIs(t, err, ErrSupplyOverflow)

	_, err = f.prog.MintPremium(f.ctx, user, f.owner, testFee, "ipfs://x")
	assert.ErrorIs(t, err, ErrSupplyOverflow)

	st := f.committed(t)
	assert.Equal(t, uint64(math.MaxUint64), st.TotalStandardMinted)
	assert.Equal(t, uint64(math.MaxUint64), st.TotalPremiumMinted)
	assert.Equal(t, userBalance, f.ledger.Balance(user), "no funds move on overflow")

	_, err = f.ledger.Holding(f.state.StandardMint, user)
	assert.ErrorIs(t, err, chain.ErrAccountNotFound)
}

func TestMint_LastRepresentableValue(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)
	setCounters(t, f, math.MaxUint64-1, 0)

	res, err := f.prog.MintStandard(f.ctx, user, f.owner, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), res.State.TotalStandardMinted)
}

func TestWithdraw_EmptyBalance_ScenarioF(t *testing.T) {
	f := newFixture(t)
	recipient := newWallet(t)

	reserved := f.ledger.Rent().MinimumBalance(domain.BlogStateSpace)
	require.Equal(t, reserved, f.ledger.Balance(f.state.Address))

	_, err := f.prog.Withdraw(f.ctx, f.owner, f.owner, recipient)
	assert.ErrorIs(t, err, ErrEmptyBalance)
	assert.Zero(t, f.ledger.Balance(recipient))
}

func TestWithdraw_KeepsReserve(t *testing.T) {
	f := newFixture(t)
	donor := f.funded(t, sol)
	buyer := f.funded(t, sol)
	recipient := newWallet(t)

	_, err := f.prog.MintStandard(f.ctx, donor, f.owner, 1_000_000)
	require.NoError(t, err)
	_, err = f.prog.MintPremium(f.ctx, buyer, f.owner, testFee, "ipfs://x")
	require.NoError(t, err)

	// Withdrawal is allowed while paused.
	_, err = f.prog.Pause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)

	res, err := f.prog.Withdraw(f.ctx, f.owner, f.owner, recipient)
	require.NoError(t, err)

	reserved := f.ledger.Rent().MinimumBalance(domain.BlogStateSpace)
	assert.Equal(t, reserved, f.ledger.Balance(f.state.Address))
	assert.Equal(t, uint64(2_000_000), f.ledger.Balance(recipient))

	require.Len(t, res.Notifications, 1)
	n := res.Notifications[0]
	assert.Equal(t, domain.KindFundsWithdrawn, n.Kind)
	assert.Equal(t, recipient, n.Account)
	assert.Equal(t, uint64(2_000_000), n.Amount)

	// Nothing left above the reserve.
	_, err = f.prog.Withdraw(f.ctx, f.owner, f.owner, recipient)
	assert.ErrorIs(t, err, ErrEmptyBalance)
}

func TestOwner_ImmutableAcrossOperations(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)
	recipient := newWallet(t)

	_, err := f.prog.MintStandard(f.ctx, user, f.owner, 5_000_000)
	require.NoError(t, err)
	_, err = f.prog.MintPremium(f.ctx, user, f.owner, testFee, "ipfs://x")
	require.NoError(t, err)
	_, err = f.prog.UpdatePremiumFee(f.ctx, f.owner, f.owner, 2*testFee)
	require.NoError(t, err)
	_, err = f.prog.ModifyURI(f.ctx, f.owner, f.owner, "ipfs://v2")
	require.NoError(t, err)
	_, err = f.prog.Pause(f.ctx, f.owner, f.owner)
	require.NoError(t, err)
	_, err = f.prog.Withdraw(f.ctx, f.owner, f.owner, recipient)
	require.NoError(t, err)

	st := f.committed(t)
	assert.Equal(t, f.owner, st.Authority)
	assert.Equal(t, f.state.StandardMint, st.StandardMint)
	assert.Equal(t, f.state.PremiumMint, st.PremiumMint)
	assert.NotZero(t, st.PremiumFee)
}

func TestProgram_UnknownBlog(t *testing.T) {
	f := newFixture(t)
	user := f.funded(t, sol)

	_, err := f.prog.MintStandard(f.ctx, user, newWallet(t), 0)
	assert.ErrorIs(t, err, chain.ErrAccountNotFound)
}

func TestProgram_StateReadModelFollowsCommits(t *testing.T) {
	f := newFixture(t)

	res, err := f.prog.ModifyURI(f.ctx, f.owner, f.owner, "ipfs://v2")
	require.NoError(t, err)

	mirrored, err := f.states.GetByAuthority(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", mirrored.URI)
	assert.Equal(t, res.Receipt.Slot, mirrored.UpdatedSlot)
	assert.Equal(t, f.committed(t).UpdatedSlot, mirrored.UpdatedSlot)

	// A rejected instruction leaves the read model untouched.
	_, err = f.prog.ModifyURI(f.ctx, f.owner, f.owner, "")
	require.Error(t, err)
	mirrored, err = f.states.GetByAuthority(f.ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", mirrored.URI)
}

func TestError_Codes(t *testing.T) {
	tests := []struct {
		err  *Error
		code uint32
		name string
	}{
		{ErrUnauthorized, 6000, "Unauthorized"},
		{ErrInvalidNewFee, 6001, "InvalidNewFee"},
		{ErrPaused, 6002, "Paused"},
		{ErrLessThanPremiumFee, 6003, "LessThanPremiumFee"},
		{ErrEmptyBalance, 6004, "EmptyBalance"},
		{ErrEmptyURI, 6005, "EmptyUri"},
		{ErrURITooLong, 6006, "UriTooLong"},
		{ErrSupplyOverflow, 6007, "SupplyOverflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.name, tt.err.Name)

			pe, ok := AsError(tt.err)
			require.True(t, ok)
			assert.Same(t, tt.err, pe)
		})
	}

	_, ok := AsError(chain.ErrAccountInUse)
	assert.False(t, ok)
}
