package charset

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupKnownNames(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf-8-bom", "utf-16", "UTF-16BE", "windows-1252", "latin1", "cp1252"} {
		enc, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, enc, name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("klingon-8")
	assert.Error(t, err)
}

func TestEncodeWindows1252(t *testing.T) {
	out, err := Encode("Ø°C", "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xD8, 0xB0, 'C'}, out)
}

func TestEncodeUTF16WritesBOM(t *testing.T) {
	out, err := Encode("A", "utf-16")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE, 'A', 0x00}, out)
}

func TestNewReaderDecodesLatin1(t *testing.T) {
	r, err := NewReader(strings.NewReader("\xB0C"), "iso-8859-1")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "°C", string(b))
}

func TestNewReaderHonoursBOM(t *testing.T) {
	r, err := NewReader(strings.NewReader("\xEF\xBB\xBFTag"), "windows-1252")
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Tag", string(b))
}
