package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizer_CarriesPartialToken(t *testing.T) {
	tok := NewTokenizer(4)

	require.False(t, tok.Feed([]byte("1,2,3")))
	require.Equal(t, 2, tok.Count())

	require.False(t, tok.Feed([]byte("4,5")))
	require.Equal(t, []uint8{1, 2, 34}, tok.Samples())

	require.True(t, tok.Feed([]byte("\n6,7,")))
	require.Equal(t, []uint8{1, 2, 34, 5}, tok.Samples())
}

func TestTokenizer_ClampsAndDropsGarbage(t *testing.T) {
	tok := NewTokenizer(10)
	tok.Feed([]byte("-5, 300,abc,12x, 7\r\n\t255 0 "))

	require.Equal(t, []uint8{0, 255, 7, 255, 0}, tok.Samples())
}

func TestTokenizer_IgnoresInvalidUTF8(t *testing.T) {
	tok := NewTokenizer(3)
	tok.Feed([]byte{'1', '0', 0xff, ',', '2', ','})

	require.Equal(t, []uint8{10, 2}, tok.Samples())
}

func TestTokenizer_StopsAtTarget(t *testing.T) {
	tok := NewTokenizer(2)
	require.True(t, tok.Feed([]byte("1,2,3,4,")))
	require.Equal(t, []uint8{1, 2}, tok.Samples())
	require.True(t, tok.Feed([]byte("5,")))
	require.Equal(t, 2, tok.Count())
}
