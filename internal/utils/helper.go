package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var numeralRegex = regexp.MustCompile(`^[0-9]+$`)

// IsNumeral reports whether s is an unsigned integer-like numeral of any length.
func IsNumeral(s string) bool {
	return numeralRegex.MatchString(s)
}

// IsValidSQLInt reports whether s is a non-negative integer that fits a signed
// 64-bit column. Signs, whitespace, decimals and exponents are rejected.
func IsValidSQLInt(s string) bool {
	if !IsNumeral(s) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// Flag renders a boolean the way the gateway expects it on the wire.
func Flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseFlag accepts the usual config spellings of a boolean. An empty string
// yields def.
func ParseFlag(s string, def bool) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return def, strconv.ErrSyntax
}
