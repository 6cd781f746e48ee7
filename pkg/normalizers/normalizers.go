// Package normalizers provides field normalization functions for transaction matching
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("ndescription", NormalizeDescription)
	Register("nreference", NormalizeReference)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeDescription normalizes a bank transaction description for matching
// - Lowercase
// - Collapse runs of whitespace to single spaces
// - Strip statement formatting characters (* and #)
//
// Formatting characters are stripped after whitespace is collapsed, so
// "POS * 1234" normalizes to "pos  1234" rather than "pos 1234". Both sides
// of a comparison go through the same pipeline, so the residue is harmless.
func NormalizeDescription(s string) string {
	if s == "" {
		return ""
	}

	normalized := strings.Join(strings.Fields(strings.ToLower(s)), " ")

	normalized = strings.ReplaceAll(normalized, "**", "")
	normalized = strings.ReplaceAll(normalized, "***", "")
	normalized = strings.ReplaceAll(normalized, "#", "")
	normalized = strings.ReplaceAll(normalized, "*", "")

	return normalized
}

// NormalizeReference normalizes a bank reference or check number (lowercase, trim)
func NormalizeReference(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CollapseWhitespace collapses runs of whitespace to single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeAccountNumber keeps only the digits of an account number
func NormalizeAccountNumber(s string) string {
	return DigitsOnly(s)
}
