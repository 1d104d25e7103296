// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package ctxkeys

// Key is a typed context key to avoid collisions across packages.
type Key int

const (
	UserID Key = iota
	Username
	Role
	ClientID
)
