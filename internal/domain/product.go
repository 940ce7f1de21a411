// Package domain contains the shop entities shared across modules.
package domain

import (
	"fmt"
	"time"
)

// Product represents a catalog product.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionDuration is the fixed access period a subscription product grants.
type SubscriptionDuration string

// Subscription durations.
const (
	DurationUnset    SubscriptionDuration = ""
	DurationOneMonth SubscriptionDuration = "1 month"
	DurationOneYear  SubscriptionDuration = "1 year"
)

// IsValid checks if the duration is one of the selectable values.
func (d SubscriptionDuration) IsValid() bool {
	return d == DurationOneMonth || d == DurationOneYear
}

// ExpiryFrom returns the expiry date for a subscription bought on day.
// Anything other than one month, including an unset duration, lasts a year.
// Month overflow is normalized (Jan 31 + 1 month = Mar 3 in non-leap years).
func (d SubscriptionDuration) ExpiryFrom(day time.Time) time.Time {
	if d == DurationOneMonth {
		return day.AddDate(0, 1, 0)
	}
	return day.AddDate(1, 0, 0)
}

// Metadata keys used by the subscription extension.
const (
	MetaIsSubscriptionProduct  = "_is_subscription_product"
	MetaSubscriptionDuration   = "_subscription_duration"
	MetaSubscriptionExpiry     = "_subscription_expiry"
	MetaSubscriptionActivation = "_subscription_activation"
)

// Metadata flag values.
const (
	MetaYes = "yes"
	MetaNo  = "no"
)

// ExpiryLayout is the storage format of the subscription expiry date.
const ExpiryLayout = "2006-01-02"

// ParseExpiry parses a stored expiry date in the given location.
func ParseExpiry(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ExpiryLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry %q: %w", value, err)
	}
	return t, nil
}
