package symbol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned by hosts for codes that are not six digits with an optional exchange prefix.
var ErrInvalidCode = errors.New("invalid stock code")

// Exchange prefixes used by the mainland quote providers.
const (
	PrefixShanghai = "sh"
	PrefixShenzhen = "sz"
	PrefixBeijing  = "bj"
)

// Normalize trims a stock code and prefixes bare codes with their exchange:
// codes starting with 6 trade in Shanghai, codes starting with 0 or 3 in
// Shenzhen. Anything else, including already prefixed codes, passes through.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(code, "6"):
		return PrefixShanghai + code
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return PrefixShenzhen + code
	default:
		return code
	}
}

// Split separates a normalized code into its lower-case exchange prefix and
// digits. The prefix is empty for unprefixed codes.
func Split(code string) (prefix, digits string) {
	code = strings.TrimSpace(code)
	if len(code) > 2 {
		p := strings.ToLower(code[:2])
		switch p {
		case PrefixShanghai, PrefixShenzhen, PrefixBeijing:
			return p, code[2:]
		}
	}
	return "", code
}

// IsValidCode accepts a six-digit code, optionally carrying an sh/sz/bj prefix.
func IsValidCode(code string) bool {
	_, digits := Split(code)
	if len(digits) != 6 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Canonical returns the normalized code with a lower-case prefix.
func Canonical(code string) string {
	prefix, digits := Split(Normalize(code))
	return prefix + digits
}

// YahooTicker maps a code to the Yahoo Finance ticker, e.g. sh600519 -> 600519.SS.
func YahooTicker(code string) (string, error) {
	prefix, digits := Split(Normalize(code))
	switch prefix {
	case PrefixShanghai:
		return digits + ".SS", nil
	case PrefixShenzhen:
		return digits + ".SZ", nil
	case PrefixBeijing:
		return digits + ".BJ", nil
	default:
		return "", fmt.Errorf("no exchange known for code %q", code)
	}
}

// MIC returns the ISO 10383 market identifier (lower case) of the code's exchange.
func MIC(code string) (string, bool) {
	prefix, _ := Split(Normalize(code))
	switch prefix {
	case PrefixShanghai:
		return "xshg", true
	case PrefixShenzhen:
		return "xshe", true
	default:
		return "", false
	}
}
