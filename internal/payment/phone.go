package payment

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPhone = errors.New("payment: invalid phone number format, use 07XXXXXXXX or 01XXXXXXXX")

// Kenyan mobile number in country-code form: 254, then a 7 or 1, then 8 digits.
var phonePattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// NormalizePhone rewrites a local trunk-prefixed number (07..., 01...) to
// country-code form and validates the result. Anything that does not end up
// matching 254(7|1)XXXXXXXX is rejected before any gateway call is made.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if strings.HasPrefix(phone, "07") || strings.HasPrefix(phone, "01") {
		phone = "254" + phone[1:]
	}
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
