// Package contact normalizes the email addresses and phone numbers that
// one-time codes are delivered to. Every store keys on the normalized form,
// so "A@B.com " and "a@b.com" share attempt counters and blacklist entries.
package contact

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huntier-api/internal/domain"
)

var v = validator.New()

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Parse returns the normalized contact for raw, or a domain.ErrBadRequest-wrapped error.
func Parse(raw string) (domain.Contact, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Contact{}, fmt.Errorf("contact required: %w", domain.ErrBadRequest)
	}
	if strings.Contains(s, "@") {
		s = strings.ToLower(s)
		if err := v.Var(s, "email"); err != nil {
			return domain.Contact{}, fmt.Errorf("invalid email: %w", domain.ErrBadRequest)
		}
		return domain.Contact{Kind: domain.ContactEmail, Value: s}, nil
	}
	s = phoneNoise.Replace(s)
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if err := v.Var(s, "e164"); err != nil || len(s) < 9 {
		return domain.Contact{}, fmt.Errorf("phone must be in international format: %w", domain.ErrBadRequest)
	}
	return domain.Contact{Kind: domain.ContactPhone, Value: s}, nil
}

// Mask hides most of a contact for logs: "j***@example.com", "+86*******5678".
func Mask(c string) string {
	if at := strings.IndexByte(c, '@'); at > 0 {
		return c[:1] + "***" + c[at:]
	}
	if len(c) <= 6 {
		return "***"
	}
	return c[:3] + strings.Repeat("*", len(c)-7) + c[len(c)-4:]
}
