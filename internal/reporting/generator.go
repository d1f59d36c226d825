package reporting

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/storage"
)

// Generator produces reports from the read model and the notifications log.
type Generator struct {
	states storage.StateStore
	events storage.EventStore
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(states storage.StateStore, events storage.EventStore) *Generator {
	return &Generator{
		states: states,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete treasury report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	states, err := g.states.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load states: %w", err)
	}

	rows := make([]BlogRow, 0, len(states))
	for _, st := range states {
		notes, err := g.events.GetByState(ctx, st.Address)
		if err != nil {
			return nil, fmt.Errorf("load notifications of %s: %w", st.Address, err)
		}
		rows = append(rows, buildRow(st, notes))
	}

	sort.Slice(rows, func(i, j int) bool {
		return bytes.Compare(rows[i].State[:], rows[j].State[:]) < 0
	})

	return &Report{
		GeneratedAt: g.now(),
		Blogs:       rows,
		Totals:      sumRows(rows),
	}, nil
}

func buildRow(st *domain.BlogState, notes []*domain.Notification) BlogRow {
	row := BlogRow{
		State:          st.Address,
		Authority:      st.Authority,
		URI:            st.URI,
		Paused:         st.Paused,
		PremiumFee:     st.PremiumFee,
		StandardIssued: st.TotalStandardMinted,
		PremiumIssued:  st.TotalPremiumMinted,
		Notifications:  len(notes),
		LastSlot:       st.UpdatedSlot,
	}

	for _, n := range notes {
		switch n.Kind {
		case domain.KindFundsReceived:
			row.Donations = addSat(row.Donations, n.Amount)
		case domain.KindPremiumReceived:
			row.PremiumRevenue = addSat(row.PremiumRevenue, n.Amount)
		case domain.KindFundsWithdrawn:
			row.Withdrawn = addSat(row.Withdrawn, n.Amount)
		}
		if n.Slot > row.LastSlot {
			row.LastSlot = n.Slot
		}
	}

	received := addSat(row.Donations, row.PremiumRevenue)
	if received > row.Withdrawn {
		row.Surplus = received - row.Withdrawn
	}
	return row
}

func sumRows(rows []BlogRow) Totals {
	t := Totals{Blogs: len(rows)}
	for _, r := range rows {
		t.StandardIssued = addSat(t.StandardIssued, r.StandardIssued)
		t.PremiumIssued = addSat(t.PremiumIssued, r.PremiumIssued)
		t.Donations = addSat(t.Donations, r.Donations)
		t.PremiumRevenue = addSat(t.PremiumRevenue, r.PremiumRevenue)
		t.Withdrawn = addSat(t.Withdrawn, r.Withdrawn)
		t.Surplus = addSat(t.Surplus, r.Surplus)
	}
	return t
}

// addSat adds without wrapping.
func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
