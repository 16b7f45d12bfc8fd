package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatterRoundsToCurrencyScale(t *testing.T) {
	usd, err := NewFormatter("usd", "en-US")
	require.NoError(t, err)
	require.Equal(t, "USD", usd.Currency())
	require.Equal(t, 4600.33, usd.Round(4600.3333333))

	jpy, err := NewFormatter("JPY", "ja")
	require.NoError(t, err)
	require.Equal(t, 4600.0, jpy.Round(4600.3333333))
}

func TestFormatterRendersSymbol(t *testing.T) {
	usd, err := NewFormatter("USD", "en-US")
	require.NoError(t, err)
	out := usd.Format(13800)
	require.True(t, strings.Contains(out, "$"), out)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, out)
	require.True(t, strings.HasPrefix(digits, "13800"), out)

	format := usd.Func()
	require.Equal(t, out, format(13800))
}

func TestNewFormatterRejectsUnknownCurrency(t *testing.T) {
	_, err := NewFormatter("XYZQ", "en")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestZeroFormatterFallsBack(t *testing.T) {
	require.Equal(t, "12.50", Formatter{}.Format(12.5))
}
