package auth

import (
	"fmt"
	"strings"
)

// NormalizePhone converts a mobile number to E.164. Ten-digit numbers are
// assumed Indian and get the +91 prefix; numbers that already carry a
// country code keep it.
//
//	"9876543210"       -> "+919876543210"
//	"919876543210"     -> "+919876543210"
//	"+91 98765 43210"  -> "+919876543210"
func NormalizePhone(raw string) (string, error) {
	hasPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()

	if len(number) < 10 || len(number) > 15 {
		return "", fmt.Errorf("invalid mobile number %q", raw)
	}

	if hasPlus {
		return "+" + number, nil
	}
	if len(number) == 10 {
		return "+91" + number, nil
	}
	if !strings.HasPrefix(number, "91") {
		number = "91" + number
	}
	if len(number) > 15 {
		return "", fmt.Errorf("invalid mobile number %q", raw)
	}
	return "+" + number, nil
}
