// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package keygen produces license keys and invoice numbers.
//
// License keys carry 128 bits of randomness, so collisions are vanishingly
// unlikely; the unique index on licenses.license_key is the real guard, and
// callers regenerate once on a conflict before giving up. Invoice numbers are
// not random at all: they come from a per-year counter bumped inside the same
// transaction as the invoice insert.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	licenseKeyPrefix = "LIC"
	licenseTokenSize = 16 // bytes of randomness, hex-encoded to 32 chars
)

// GenerateLicenseKey returns a new key formatted as LIC-<TOKEN>-<YYYYMMDD>,
// where TOKEN is 32 uppercase hex characters.
func GenerateLicenseKey(now time.Time) (string, error) {
	token := make([]byte, licenseTokenSize)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}

	return fmt.Sprintf("%s-%s-%s",
		licenseKeyPrefix,
		strings.ToUpper(hex.EncodeToString(token)),
		now.Format("20060102"),
	), nil
}

// FormatInvoiceNumber renders an invoice number as INV-<year>-<5-digit seq>.
// Sequences beyond 99999 widen rather than wrap.
func FormatInvoiceNumber(year int, sequence int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, sequence)
}
