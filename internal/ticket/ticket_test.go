package ticket

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumber(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^NV-[0-9A-F]{10}$`)

	a, err := NewNumber()
	require.NoError(t, err)
	assert.Regexp(t, re, a)

	b, err := NewNumber()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewTransactionID(t *testing.T) {
	t.Parallel()

	id, err := NewTransactionID()
	require.NoError(t, err)
	assert.Regexp(t, `^TXN-[0-9A-F]{10}$`, id)
}

func TestQRCodePNG(t *testing.T) {
	t.Parallel()

	uri, err := QRCodePNG("NV-ABCDEF0123", 7, uuid.New())
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
