package urlcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.cloudfoundry.org/picogorouter/urlcodec"
)

func TestDecodeToStringPlain(t *testing.T) {
	s, err := urlcodec.String("hello").DecodeToString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestDecodeToStringPlusIsSpace(t *testing.T) {
	s, err := urlcodec.String("a+b").DecodeToString()
	require.NoError(t, err)
	assert.Equal(t, "a b", s)
}

func TestDecodeToStringPercentAscii(t *testing.T) {
	s, err := urlcodec.String("100%25").DecodeToString()
	require.NoError(t, err)
	assert.Equal(t, "100%", s)
}

func TestDecodeToStringPercentMultibyte(t *testing.T) {
	// "é" is U+00E9, UTF-8 encoded C3 A9.
	s, err := urlcodec.String("%C3%A9").DecodeToString()
	require.NoError(t, err)
	assert.Equal(t, "é", s)
}

func TestDecodeToStringBadPercent(t *testing.T) {
	_, err := urlcodec.String("%zz").DecodeToString()
	require.ErrorIs(t, err, urlcodec.ErrBadPercentEncoding)
}

func TestDecodeToStringBadContinuation(t *testing.T) {
	_, err := urlcodec.String("%C3%20").DecodeToString()
	require.ErrorIs(t, err, urlcodec.ErrInvalidUTF8)
}

func TestDecodeOverflow(t *testing.T) {
	_, err := urlcodec.String("hello").Decode(make([]byte, 2))
	require.ErrorIs(t, err, urlcodec.ErrDecodeOverflow)
}

func TestStripPrefixMatches(t *testing.T) {
	rest, ok := urlcodec.String("/users/42").StripPrefix("/users/")
	require.True(t, ok)
	assert.Equal(t, urlcodec.String("42"), rest)
}

func TestStripPrefixSlashMustBeLiteral(t *testing.T) {
	_, ok := urlcodec.String("%2Fusers/42").StripPrefix("/users/")
	require.False(t, ok)
}

func TestStripPrefixMismatch(t *testing.T) {
	_, ok := urlcodec.String("/posts/42").StripPrefix("/users/")
	require.False(t, ok)
}

func TestSplitFirstSegment(t *testing.T) {
	segment, rest := urlcodec.String("add/2/3").SplitFirstSegment()
	assert.Equal(t, urlcodec.String("add"), segment)
	assert.Equal(t, urlcodec.String("2/3"), rest)
}

func TestSplitFirstSegmentNoSlash(t *testing.T) {
	segment, rest := urlcodec.String("add").SplitFirstSegment()
	assert.Equal(t, urlcodec.String("add"), segment)
	assert.Equal(t, urlcodec.String(""), rest)
}

func TestParseInt(t *testing.T) {
	v, err := urlcodec.String("42").ParseInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestFormValues(t *testing.T) {
	values := urlcodec.NewFormValues("a=1&b=hello+world&c=")
	m, err := values.Map()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "hello world", "c": ""}, m)
}
