package payments

import "strings"

// NormalizePhone converts Kenyan mobile numbers to the 254XXXXXXXXX wire
// format the gateway requires. Accepted inputs: 07XXXXXXXX / 01XXXXXXXX,
// 7XXXXXXXX / 1XXXXXXXX, and already-normalized 254XXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && digits[0] == '0':
		return "254" + digits[1:], nil
	case len(digits) == 9:
		return "254" + digits, nil
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return digits, nil
	}
	return "", ErrInvalidPhone
}
