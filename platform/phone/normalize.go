// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// DefaultRegion is the region whose country calling code is stripped
	// from identity keys when no region is configured.
	DefaultRegion = "NL"

	// DefaultLocalNumberLength is the expected length of a national number
	// without its country calling code.
	DefaultLocalNumberLength = 10
)

// Normalizer produces canonical identity keys from raw phone strings.
// Every raw phone value must pass through Normalize before it is used as a
// lookup or storage key; distinct spellings of one number must collapse to
// a single key or lead records fragment.
type Normalizer struct {
	countryCode string
	localLength int
}

// Config captures the settings a Normalizer needs.
type Config interface {
	GetPhoneDefaultRegion() string
	GetPhoneLocalNumberLength() int
}

// NewNormalizer creates a Normalizer for the configured default region.
// The region's country calling code is resolved through libphonenumber
// metadata, so a deployment can move regions without touching code.
func NewNormalizer(cfg Config) *Normalizer {
	region := cfg.GetPhoneDefaultRegion()
	if region == "" {
		region = DefaultRegion
	}

	localLength := cfg.GetPhoneLocalNumberLength()
	if localLength <= 0 {
		localLength = DefaultLocalNumberLength
	}

	code := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(region))
	if code == 0 {
		code = phonenumbers.GetCountryCodeForRegion(DefaultRegion)
	}

	return &Normalizer{
		countryCode: strconv.Itoa(code),
		localLength: localLength,
	}
}

// Normalize canonicalizes a raw phone string into an identity key: digits
// only, default country calling code stripped when the remainder is longer
// than a national number, leading zeros stripped.
//
// The function is total; it never fails on malformed input. Empty input
// yields the empty identity, which callers must reject before using it as
// a store key. Normalize is idempotent.
func (n *Normalizer) Normalize(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	// Zeros come off before the prefix check so the 00+CC international
	// form collapses in a single pass, keeping Normalize idempotent.
	clean := strings.TrimLeft(digits.String(), "0")

	if strings.HasPrefix(clean, n.countryCode) && len(clean) > n.localLength {
		clean = clean[len(n.countryCode):]
	}

	return strings.TrimLeft(clean, "0")
}

// NormalizeE164 formats a phone number to E.164 for outbound delivery.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
