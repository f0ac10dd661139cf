// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"nurture_backend/platform/apperr"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country prefix.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns
// the trimmed input. Use this for lookups where a best-effort match is fine.
func NormalizeE164(input, region string) string {
	normalized, err := NormalizeE164Strict(input, region)
	if err != nil {
		return strings.TrimSpace(input)
	}
	return normalized
}

// NormalizeE164Strict formats a phone number to E.164 and returns a
// validation error when the number cannot be parsed or is not valid.
// Outbound dispatch requires a strictly valid number.
func NormalizeE164Strict(input, region string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", apperr.Validation("phone number is empty")
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "phone number is unparseable", err)
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", apperr.Validation("phone number is not valid")
	}

	return phonenumbers.Format(number, phonenumbers.E164), nil
}
