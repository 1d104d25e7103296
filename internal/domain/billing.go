// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubscriptionType is the billing cadence of a subscription.
type SubscriptionType string

const (
	SubscriptionMonthly   SubscriptionType = "monthly"
	SubscriptionQuarterly SubscriptionType = "quarterly"
	SubscriptionYearly    SubscriptionType = "yearly"
)

func (t SubscriptionType) String() string {
	return string(t)
}

// BillingPeriodMonths returns the length of one billing period in months.
func (t SubscriptionType) BillingPeriodMonths() int {
	switch t {
	case SubscriptionQuarterly:
		return 3
	case SubscriptionYearly:
		return 12
	default:
		return 1
	}
}

// ParseSubscriptionType validates a raw subscription type string.
func ParseSubscriptionType(raw string) (SubscriptionType, error) {
	switch SubscriptionType(strings.ToLower(strings.TrimSpace(raw))) {
	case SubscriptionMonthly:
		return SubscriptionMonthly, nil
	case SubscriptionQuarterly:
		return SubscriptionQuarterly, nil
	case SubscriptionYearly:
		return SubscriptionYearly, nil
	default:
		return "", fmt.Errorf("unknown subscription type %q", raw)
	}
}

// AddMonthsClamped advances t by the given number of calendar months,
// clamping the day to the last day of the target month instead of letting it
// spill over (Jan 31 + 1 month = Feb 29 in a leap year, not Mar 2).
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	totalMonths := int(month) - 1 + months
	targetYear := year + totalMonths/12
	targetMonth := time.Month(totalMonths%12 + 1)
	if totalMonths < 0 && totalMonths%12 != 0 {
		targetYear--
		targetMonth = time.Month(totalMonths%12 + 13)
	}

	if max := daysInMonth(targetYear, targetMonth); day > max {
		day = max
	}

	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
