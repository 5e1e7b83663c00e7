package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	require.Equal(t, "₱1,234,567.89", Currency(1234567.89))
	require.Equal(t, "₱0.00", Currency(0))
}

func TestCurrencyCompact(t *testing.T) {
	require.Equal(t, "₱950.00", CurrencyCompact(950))
	require.Equal(t, "₱1.2K", CurrencyCompact(1234))
	require.Equal(t, "₱3.4M", CurrencyCompact(3400000))
	require.Equal(t, "₱5.6B", CurrencyCompact(5.6e9))
}

func TestPercent1(t *testing.T) {
	require.Equal(t, "25.7%", Percent1(0.257))
	require.Equal(t, "0.0%", Percent1(0))
}

func TestInteger(t *testing.T) {
	require.Equal(t, "8,558", Integer(8558))
	require.Equal(t, "42", Integer(42))
}
