package domain

import "strings"

// FirstOr returns the first element of items, or fallback when items is empty.
func FirstOr[T any](items []T, fallback T) T {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// OrNotAvailable substitutes the NotAvailable placeholder for blank values.
func OrNotAvailable(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotAvailable
	}
	return value
}

// PrimaryPhone picks the first usable phone number of an organization,
// preferring the phone list over the single-value fields.
func (o Organization) PrimaryPhone() string {
	return FirstNonEmpty(FirstNonEmpty(o.PhoneNumbers...), o.Phone, o.ContactPhone, o.Mobile)
}
