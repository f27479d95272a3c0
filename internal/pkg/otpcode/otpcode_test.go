package otpcode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { cost = bcrypt.MinCost }

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestGenerate_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestHash_NeverContainsPlaintext(t *testing.T) {
	h, err := Hash("482913")
	require.NoError(t, err)
	assert.NotContains(t, h, "482913")
}

func TestMatches(t *testing.T) {
	h, err := Hash("482913")
	require.NoError(t, err)

	assert.True(t, Matches(h, "482913"))
	assert.False(t, Matches(h, "482914"))
	assert.False(t, Matches(h, "48291"))
	assert.False(t, Matches(h, ""))
	assert.False(t, Matches("not-a-hash", "482913"))
}

func TestDecoyHash_StableAndNeverMatchesACode(t *testing.T) {
	h := DecoyHash()
	assert.Equal(t, h, DecoyHash())

	got, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, cost, got)
	assert.False(t, Matches(h, "000000"))
}
