package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrpl-wallet-bot/internal/domain"
)

func TestParseXRP(t *testing.T) {
	cases := map[string]domain.Drops{
		"9":          9_000_000,
		"9.0":        9_000_000,
		" 9.5 ":      9_500_000,
		"0.000001":   1,
		"1.23456789": 1_234_567,
		"100":        100_000_000,
	}
	for in, want := range cases {
		got, err := ParseXRP(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseXRPRejects(t *testing.T) {
	for _, in := range []string{
		"", "abc", "0", "-1", "0.0000001", "1,5", "100000000001",
		"1e100000000", "1e-100000000", "1E5", "0x10", "NaN", "1.2.3", ".", ".5", "+2",
		"1" + strings.Repeat("0", 40),
	} {
		_, err := ParseXRP(in)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, in)
	}
}

func TestParseXRPHugeExponentReturnsPromptly(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, err := ParseXRP("1e100000000")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("ParseXRP did not return for an exponent amount")
	}
}

func TestFormatXRP(t *testing.T) {
	assert.Equal(t, "9", FormatXRP(9_000_000))
	assert.Equal(t, "9.5", FormatXRP(9_500_000))
	assert.Equal(t, "0.000001", FormatXRP(1))
	assert.Equal(t, "0", FormatXRP(0))
	assert.Equal(t, "10 XRP", FormatBalance(10_000_000))
}
