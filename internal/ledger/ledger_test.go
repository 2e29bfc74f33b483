package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustCredit(t *testing.T, total, paid string, day int, seq int64) Entry {
	t.Helper()
	e, err := NewCreditSale(uuid.New(), dec(total), dec(paid), baseDate.AddDate(0, 0, day), seq)
	require.NoError(t, err)
	return e
}

func mustPayment(t *testing.T, amount string, day int, seq int64) Entry {
	t.Helper()
	e, err := NewPayment(uuid.New(), dec(amount), baseDate.AddDate(0, 0, day), seq)
	require.NoError(t, err)
	return e
}

func mustCash(t *testing.T, total string, day int, seq int64) Entry {
	t.Helper()
	e, err := NewCashSale(uuid.New(), dec(total), baseDate.AddDate(0, 0, day), seq)
	require.NoError(t, err)
	return e
}

func TestOutstandingEmpty(t *testing.T) {
	assert.True(t, Outstanding(nil).IsZero())
	assert.True(t, Outstanding([]Entry{}).IsZero())
}

func TestOutstandingCashOnly(t *testing.T) {
	entries := []Entry{
		mustCash(t, "120.00", 0, 1),
		mustCash(t, "75.50", 1, 2),
		mustCash(t, "9.99", 2, 3),
	}
	assert.True(t, Outstanding(entries).IsZero(), "cash sales settle immediately")
}

func TestOutstandingPartialPaymentScenario(t *testing.T) {
	// CREDIT 500.00 with 200.00 collected upfront, then PAYMENT 100.00
	entries := []Entry{
		mustCredit(t, "500.00", "200.00", 0, 1),
		mustPayment(t, "100.00", 1, 2),
	}
	assert.Equal(t, "200", Outstanding(entries).String())
}

func TestOutstandingCashIgnoredAmongCredit(t *testing.T) {
	// CREDIT 300, CASH 150 (irrelevant), PAYMENT 50 -> 250
	entries := []Entry{
		mustCredit(t, "300.00", "0", 0, 1),
		mustCash(t, "150.00", 1, 2),
		mustPayment(t, "50.00", 2, 3),
	}
	assert.Equal(t, "250", Outstanding(entries).String())

	lines := Statement(entries)
	require.Len(t, lines, 3)
	// Newest first: payment, cash, credit
	assert.Equal(t, Payment, lines[0].Entry.Type)
	assert.Equal(t, Cash, lines[1].Entry.Type)
	assert.Equal(t, Credit, lines[2].Entry.Type)
	// Cash row carries the prior balance forward unchanged
	assert.Equal(t, "300", lines[2].Balance.String())
	assert.Equal(t, "300", lines[1].Balance.String())
	assert.Equal(t, "250", lines[0].Balance.String())
}

func TestOutstandingNegativeMeansAdvance(t *testing.T) {
	entries := []Entry{
		mustCredit(t, "100.00", "0", 0, 1),
		mustPayment(t, "150.00", 1, 2),
	}
	out := Outstanding(entries)
	assert.Equal(t, "-50", out.String())

	lines := Statement(entries)
	require.Len(t, lines, 2)
	assert.Equal(t, "50", lines[0].AbsBalance().String())
}

func TestOutstandingOverpaidCreditFlowsThrough(t *testing.T) {
	// paid > total is bad data; the calculator still processes the
	// negative delta without complaint.
	e := Entry{ID: uuid.New(), Type: Credit, Total: dec("100.00"), Paid: dec("150.00"), Date: baseDate, Sequence: 1, Active: true}
	assert.Equal(t, "-50", Outstanding([]Entry{e}).String())
}

func TestInactiveEntriesExcluded(t *testing.T) {
	voided := mustCredit(t, "400.00", "0", 0, 1)
	voided.Active = false
	entries := []Entry{
		voided,
		mustCredit(t, "100.00", "0", 1, 2),
	}
	assert.Equal(t, "100", Outstanding(entries).String())
	assert.Len(t, Statement(entries), 1)
}

func TestStatementMatchesOutstanding(t *testing.T) {
	fixtures := map[string][]Entry{
		"mixed": {
			mustCredit(t, "500.00", "200.00", 0, 1),
			mustCash(t, "80.00", 1, 2),
			mustPayment(t, "100.00", 2, 3),
			mustCredit(t, "42.35", "0", 3, 4),
			mustPayment(t, "0.05", 4, 5),
		},
		"payments only": {
			mustPayment(t, "10.00", 0, 1),
			mustPayment(t, "20.00", 1, 2),
		},
		"single credit": {
			mustCredit(t, "999.99", "0.01", 0, 1),
		},
		"advance then credit": {
			mustPayment(t, "300.00", 0, 1),
			mustCredit(t, "120.00", "0", 1, 2),
		},
	}

	for name, entries := range fixtures {
		t.Run(name, func(t *testing.T) {
			lines := Statement(entries)
			require.NotEmpty(t, lines)
			assert.True(t, lines[0].Balance.Equal(Outstanding(entries)),
				"running balance after last chronological entry must equal outstanding")
		})
	}
}

func TestStatementOrderedNewestFirst(t *testing.T) {
	entries := []Entry{
		mustCredit(t, "10.00", "0", 2, 3),
		mustCredit(t, "20.00", "0", 0, 1),
		mustCredit(t, "30.00", "0", 1, 2),
	}
	lines := Statement(entries)
	require.Len(t, lines, 3)
	assert.Equal(t, "10", lines[0].Entry.Total.String())
	assert.Equal(t, "30", lines[1].Entry.Total.String())
	assert.Equal(t, "20", lines[2].Entry.Total.String())
	assert.Equal(t, "60", lines[0].Balance.String())
}

func TestStatementTieBrokenBySequence(t *testing.T) {
	// Same timestamp, creation order decides
	a := mustCredit(t, "100.00", "0", 0, 1)
	b := mustPayment(t, "100.00", 0, 2)
	lines := Statement([]Entry{b, a})
	require.Len(t, lines, 2)
	assert.Equal(t, Payment, lines[0].Entry.Type)
	assert.Equal(t, "100", lines[1].Balance.String())
	assert.Equal(t, "0", lines[0].Balance.String())
}

func TestNoFloatingPointDrift(t *testing.T) {
	entries := []Entry{
		mustCredit(t, "0.10", "0", 0, 1),
		mustCredit(t, "0.10", "0", 1, 2),
		mustCredit(t, "0.10", "0", 2, 3),
	}
	assert.Equal(t, "0.3", Outstanding(entries).String())
	assert.True(t, Outstanding(entries).Equal(dec("0.30")))
}

func TestOutstandingIsPure(t *testing.T) {
	entries := []Entry{
		mustCredit(t, "500.00", "200.00", 0, 1),
		mustPayment(t, "100.00", 1, 2),
	}
	first := Outstanding(entries)
	second := Outstanding(entries)
	assert.True(t, first.Equal(second))

	// Statement must not reorder the caller's slice
	assert.Equal(t, Credit, entries[0].Type)
	_ = Statement(entries)
	assert.Equal(t, Credit, entries[0].Type)
}

func TestConstructorValidation(t *testing.T) {
	_, err := NewCashSale(uuid.New(), dec("-1.00"), baseDate, 1)
	assert.Error(t, err)

	_, err = NewCreditSale(uuid.New(), dec("-1.00"), dec("0"), baseDate, 1)
	assert.Error(t, err)

	_, err = NewCreditSale(uuid.New(), dec("10.00"), dec("-1.00"), baseDate, 1)
	assert.Error(t, err)

	_, err = NewPayment(uuid.New(), dec("0"), baseDate, 1)
	assert.Error(t, err)

	_, err = NewPayment(uuid.New(), dec("-5.00"), baseDate, 1)
	assert.Error(t, err)

	// paid == total and paid > total both construct fine
	_, err = NewCreditSale(uuid.New(), dec("10.00"), dec("10.00"), baseDate, 1)
	assert.NoError(t, err)
	_, err = NewCreditSale(uuid.New(), dec("10.00"), dec("15.00"), baseDate, 1)
	assert.NoError(t, err)
}

func TestAmountsRoundedHalfUp(t *testing.T) {
	e, err := NewCreditSale(uuid.New(), dec("10.005"), dec("0"), baseDate, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.01", e.Total.StringFixed(2))
}
