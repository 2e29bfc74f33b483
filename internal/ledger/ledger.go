// Package ledger computes customer balances from CASH/CREDIT/PAYMENT
// entries. It is pure: no database, no shared state, safe for any number
// of concurrent readers.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType discriminates the three kinds of ledger entries.
type EntryType string

const (
	Cash    EntryType = "CASH"
	Credit  EntryType = "CREDIT"
	Payment EntryType = "PAYMENT"
)

// Entry is one ledger event. Build entries through the constructors so the
// per-type field rules hold: cash sales and payments never carry a paid
// split, payments are always positive.
type Entry struct {
	ID       uuid.UUID
	Type     EntryType
	Total    decimal.Decimal
	Paid     decimal.Decimal // upfront collection on a credit sale
	Date     time.Time
	Sequence int64 // insertion order, breaks ties on equal dates
	Active   bool
}

// NewCashSale builds a CASH entry. Cash settles immediately and never
// affects the customer's balance.
func NewCashSale(id uuid.UUID, total decimal.Decimal, date time.Time, seq int64) (Entry, error) {
	if total.IsNegative() {
		return Entry{}, fmt.Errorf("cash sale amount cannot be negative: %s", total)
	}
	return Entry{ID: id, Type: Cash, Total: total.Round(2), Date: date, Sequence: seq, Active: true}, nil
}

// NewCreditSale builds a CREDIT entry with an optional upfront collection.
// paid greater than total is a data-integrity problem the sale-creation flow
// must reject; here it flows through arithmetic as a negative delta.
func NewCreditSale(id uuid.UUID, total, paid decimal.Decimal, date time.Time, seq int64) (Entry, error) {
	if total.IsNegative() {
		return Entry{}, fmt.Errorf("credit sale amount cannot be negative: %s", total)
	}
	if paid.IsNegative() {
		return Entry{}, fmt.Errorf("paid amount cannot be negative: %s", paid)
	}
	return Entry{ID: id, Type: Credit, Total: total.Round(2), Paid: paid.Round(2), Date: date, Sequence: seq, Active: true}, nil
}

// NewPayment builds a PAYMENT entry for money received.
func NewPayment(id uuid.UUID, amount decimal.Decimal, date time.Time, seq int64) (Entry, error) {
	if !amount.IsPositive() {
		return Entry{}, fmt.Errorf("payment amount must be positive: %s", amount)
	}
	return Entry{ID: id, Type: Payment, Total: amount.Round(2), Date: date, Sequence: seq, Active: true}, nil
}

// delta is the entry's contribution to the customer's balance.
func (e Entry) delta() decimal.Decimal {
	switch e.Type {
	case Credit:
		return e.Total.Sub(e.Paid)
	case Payment:
		return e.Total.Neg()
	default:
		return decimal.Zero
	}
}

// Outstanding returns the customer's net balance:
//
//	sum(credit total - credit paid) - sum(payment total)
//
// Positive means the customer owes the shop, negative means the shop holds
// the customer's advance. Inactive entries are skipped. The caller is
// responsible for passing a single customer's entries.
func Outstanding(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if !e.Active {
			continue
		}
		total = total.Add(e.delta())
	}
	return total.Round(2)
}

// Line is one statement row: the entry plus the running balance immediately
// after it was applied.
type Line struct {
	Entry   Entry
	Balance decimal.Decimal
}

// AbsBalance is the display value for "owes you X" / "you owe X" framing.
func (l Line) AbsBalance() decimal.Decimal {
	return l.Balance.Abs()
}

// Statement returns one line per active entry, newest first, each annotated
// with the running balance after that entry. The balance is accumulated in
// chronological order (date ascending, sequence breaking ties) so the oldest
// line starts the running total and the first returned line always carries
// the same value Outstanding reports.
func Statement(entries []Entry) []Line {
	active := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Active {
			active = append(active, e)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Date.Equal(active[j].Date) {
			return active[i].Sequence < active[j].Sequence
		}
		return active[i].Date.Before(active[j].Date)
	})

	lines := make([]Line, 0, len(active))
	balance := decimal.Zero
	for _, e := range active {
		balance = balance.Add(e.delta()).Round(2)
		lines = append(lines, Line{Entry: e, Balance: balance})
	}

	// Newest first for display
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines
}
