// Package program implements the blog membership instructions: configuration,
// standard and premium issuance, and treasury withdrawal.
//
// Every instruction runs as one chain transaction. Notifications and the state
// read model are published only after the transaction commits.
package program

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/chain"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/events"
	"solana-blog-pass/internal/idhash"
	"solana-blog-pass/internal/observability"
	"solana-blog-pass/internal/storage"
)

// Instruction names, used in logs and metrics.
const (
	InstrInitialize       = "initialize"
	InstrPause            = "pause"
	InstrUnpause          = "unpause"
	InstrUpdatePremiumFee = "update_premium_fee"
	InstrModifyURI        = "modify_uri"
	InstrMintStandard     = "mint_standard"
	InstrMintPremium      = "mint_premium"
	InstrWithdraw         = "withdraw"
)

// Program executes instructions against a chain.Executor.
type Program struct {
	programID address.Pubkey
	exec      chain.Executor
	publisher events.Publisher
	states    storage.StateStore
	logger    logrus.FieldLogger
	newID     func(n *domain.Notification, index int) string
}

// Option configures Program.
type Option func(*Program)

// WithPublisher sets the sink for committed notifications.
func WithPublisher(p events.Publisher) Option {
	return func(prog *Program) {
		prog.publisher = p
	}
}

// WithStateStore sets the read model updated after each commit.
func WithStateStore(s storage.StateStore) Option {
	return func(prog *Program) {
		prog.states = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(prog *Program) {
		prog.logger = l
	}
}

// WithIDGenerator sets the notification ID source. The default derives the ID
// from the state address, slot, position and kind, so republishing a
// notification yields the same ID.
func WithIDGenerator(f func(n *domain.Notification, index int) string) Option {
	return func(prog *Program) {
		prog.newID = f
	}
}

// New creates a program bound to programID.
func New(programID address.Pubkey, exec chain.Executor, opts ...Option) *Program {
	p := &Program{
		programID: programID,
		exec:      exec,
		logger:    logrus.StandardLogger(),
		newID:     defaultID,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithField("component", "program")
	return p
}

// ProgramID returns the program ID addresses are derived under.
func (p *Program) ProgramID() address.Pubkey {
	return p.programID
}

// StateAddress derives the state record address of owner.
func (p *Program) StateAddress(owner address.Pubkey) (address.Pubkey, uint8, error) {
	addr, bump, err := address.FindProgramAddress(address.Seeds{[]byte(domain.BlogSeed), owner[:]}, p.programID)
	if err != nil {
		return address.Pubkey{}, 0, fmt.Errorf("derive state address: %w", err)
	}
	return addr, bump, nil
}

// Result is the outcome of a committed instruction.
type Result struct {
	State         *domain.BlogState      `json:"state"`
	Receipt       chain.Receipt          `json:"receipt"`
	Notifications []*domain.Notification `json:"notifications,omitempty"`
}

// call is the in-transaction context of one instruction.
type call struct {
	rt     chain.Runtime
	caller address.Pubkey
	state  *domain.BlogState
	notes  []*domain.Notification
}

func (c *call) emit(kind domain.NotificationKind, account address.Pubkey, amount uint64, tokenURI string) {
	c.notes = append(c.notes, &domain.Notification{
		Kind:     kind,
		State:    c.state.Address,
		Account:  account,
		Amount:   amount,
		TokenURI: tokenURI,
	})
}

// seeds is the record's signing capability. It never leaves the package.
func (c *call) seeds() address.Seeds {
	return c.state.StateSeeds()
}

// run loads owner's record, applies fn and saves the record, all in one transaction.
func (p *Program) run(ctx context.Context, instr string, caller, owner address.Pubkey, fn func(c *call) error) (*Result, error) {
	start := time.Now()

	addr, _, err := p.StateAddress(owner)
	if err != nil {
		return nil, err
	}

	c := &call{caller: caller}
	receipt, err := p.exec.Execute(ctx, []address.Pubkey{caller}, func(rt chain.Runtime) error {
		c.rt = rt
		c.notes = nil

		st, err := rt.LoadState(addr)
		if err != nil {
			return err
		}
		c.state = st

		if err := fn(c); err != nil {
			return err
		}
		return rt.SaveState(c.state)
	})
	return p.finish(ctx, instr, start, c, receipt, err)
}

// finish records the outcome and, on success, publishes the committed effects.
// Publishing failures are logged; the transaction is already final.
func (p *Program) finish(ctx context.Context, instr string, start time.Time, c *call, receipt chain.Receipt, err error) (*Result, error) {
	log := p.logger.WithFields(logrus.Fields{
		"instruction": instr,
		"caller":      c.caller.String(),
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		result := "error"
		if pe, ok := AsError(err); ok {
			result = pe.Name
		}
		observability.RecordInstruction(instr, result, elapsed)
		log.WithError(err).Info("instruction rejected")
		return nil, err
	}
	observability.RecordInstruction(instr, "ok", elapsed)
	observability.UpdateSlot(receipt.Slot)

	c.state.UpdatedSlot = receipt.Slot
	for i, n := range c.notes {
		n.Slot = receipt.Slot
		n.EmittedAt = receipt.Timestamp
		n.ID = p.newID(n, i)
	}
	recordEffects(instr, c.notes)

	log = log.WithFields(logrus.Fields{
		"state": c.state.Address.String(),
		"slot":  receipt.Slot,
	})

	if p.states != nil {
		if err := p.states.Upsert(ctx, c.state); err != nil {
			log.WithError(err).Error("failed to update state read model")
		}
	}
	if p.publisher != nil {
		for _, n := range c.notes {
			if err := p.publisher.Publish(ctx, n); err != nil {
				observability.RecordNotificationError(n.Kind.String())
				log.WithError(err).WithField("kind", n.Kind).Error("failed to publish notification")
				continue
			}
			observability.RecordNotification(n.Kind.String())
		}
	}

	log.Debug("instruction committed")

	return &Result{
		State:         c.state,
		Receipt:       receipt,
		Notifications: c.notes,
	}, nil
}

func defaultID(n *domain.Notification, index int) string {
	return idhash.ComputeNotificationID(n.State, n.Slot, index, n.Kind)
}

func recordEffects(instr string, notes []*domain.Notification) {
	switch instr {
	case InstrMintStandard:
		observability.RecordMint(domain.TokenClassStandard.String())
	case InstrMintPremium:
		observability.RecordMint(domain.TokenClassPremium.String())
	}
	for _, n := range notes {
		switch n.Kind {
		case domain.KindFundsReceived:
			observability.RecordReceived("donation", n.Amount)
		case domain.KindPremiumReceived:
			observability.RecordReceived("premium", n.Amount)
		case domain.KindFundsWithdrawn:
			observability.RecordWithdrawn(n.Amount)
		}
	}
}
