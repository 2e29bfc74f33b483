package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUPILinkFormatsAmountToTwoDecimals(t *testing.T) {
	cases := map[string]string{
		"150":     "150.00",
		"150.5":   "150.50",
		"150.50":  "150.50",
		"0.1":     "0.10",
		"1234.99": "1234.99",
	}

	for input, want := range cases {
		amount := decimal.RequireFromString(input)
		link, err := BuildUPILink("shop@upi", "Test Shop", amount, "note")
		require.NoError(t, err, input)

		parsed, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, want, parsed.Query().Get("am"), "input %s", input)
	}
}

func TestBuildUPILinkCarriesAllFields(t *testing.T) {
	link, err := BuildUPILink("kirana@okaxis", "Sharma Kirana", decimal.RequireFromString("250.00"), "March dues")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "upi://pay?"))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "kirana@okaxis", q.Get("pa"))
	assert.Equal(t, "Sharma Kirana", q.Get("pn"))
	assert.Equal(t, "250.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Equal(t, "March dues", q.Get("tn"))
}

func TestBuildUPILinkOmitsEmptyNote(t *testing.T) {
	link, err := BuildUPILink("shop@upi", "Shop", decimal.RequireFromString("10"), "")
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.False(t, parsed.Query().Has("tn"))
}

func TestBuildUPILinkValidation(t *testing.T) {
	_, err := BuildUPILink("", "Shop", decimal.RequireFromString("10"), "")
	assert.ErrorIs(t, err, ErrMissingVPA)

	_, err = BuildUPILink("shop@upi", "Shop", decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = BuildUPILink("shop@upi", "Shop", decimal.RequireFromString("-5"), "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
