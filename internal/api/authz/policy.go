// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package authz holds the role policy as one declarative table, checked at
// the API boundary before any handler runs. Ownership scoping for the client
// role is a separate check on top of the table.
package authz

import (
	"github.com/clientdesk/clientdesk/internal/domain"
)

// Operation names an API-level action subject to the role policy.
type Operation string

const (
	OpClientRead   Operation = "client.read"
	OpClientManage Operation = "client.manage"

	OpProductRead   Operation = "product.read"
	OpProductManage Operation = "product.manage"

	OpSubscriptionRead   Operation = "subscription.read"
	OpSubscriptionCreate Operation = "subscription.create"
	OpSubscriptionUpdate Operation = "subscription.update"

	OpLicenseRead     Operation = "license.read"
	OpLicenseCreate   Operation = "license.create"
	OpLicenseActivate Operation = "license.activate"
	OpLicenseRenew    Operation = "license.renew"
	OpLicenseRevoke   Operation = "license.revoke"

	OpInvoiceRead   Operation = "invoice.read"
	OpInvoiceCreate Operation = "invoice.create"

	OpTransactionRead   Operation = "transaction.read"
	OpTransactionCreate Operation = "transaction.create"

	OpTicketRead   Operation = "ticket.read"
	OpTicketCreate Operation = "ticket.create"
	OpTicketManage Operation = "ticket.manage"

	OpNotificationRead Operation = "notification.read"

	OpDashboardView Operation = "dashboard.view"

	OpUserManage Operation = "user.manage"
)

// policy is the full role table. Admin is not listed; it passes every check.
// The client role's reads are further narrowed to its own records by the
// ownership checks below.
var policy = map[Operation][]domain.Role{
	OpClientRead:   {domain.RoleSales, domain.RoleSupport, domain.RoleClient},
	OpClientManage: {domain.RoleSales},

	OpProductRead:   {domain.RoleSales, domain.RoleSupport, domain.RoleClient},
	OpProductManage: {domain.RoleSales},

	OpSubscriptionRead:   {domain.RoleSales, domain.RoleSupport, domain.RoleClient},
	OpSubscriptionCreate: {domain.RoleSales},
	OpSubscriptionUpdate: {domain.RoleSales},

	OpLicenseRead:     {domain.RoleSales, domain.RoleSupport, domain.RoleClient},
	OpLicenseCreate:   {domain.RoleSales},
	OpLicenseActivate: {domain.RoleSales},
	OpLicenseRenew:    {domain.RoleSales},
	OpLicenseRevoke:   {domain.RoleSales},

	OpInvoiceRead:   {domain.RoleSales, domain.RoleClient},
	OpInvoiceCreate: {domain.RoleSales},

	OpTransactionRead:   {domain.RoleSales, domain.RoleClient},
	OpTransactionCreate: {domain.RoleSales},

	OpTicketRead:   {domain.RoleSales, domain.RoleSupport, domain.RoleClient},
	OpTicketCreate: {domain.RoleSupport, domain.RoleClient},
	OpTicketManage: {domain.RoleSupport},

	OpNotificationRead: {domain.RoleSales, domain.RoleSupport, domain.RoleClient},

	OpDashboardView: {domain.RoleSales, domain.RoleSupport},

	OpUserManage: {},
}

// Allowed reports whether role may perform op.
func Allowed(role domain.Role, op Operation) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, allowed := range policy[op] {
		if role == allowed {
			return true
		}
	}
	return false
}

// CanAccessClient reports whether a caller may touch records owned by
// ownerClientID. Staff roles see every client; the client role only its own.
func CanAccessClient(role domain.Role, callerClientID, ownerClientID int64) bool {
	if role != domain.RoleClient {
		return true
	}
	return callerClientID != 0 && callerClientID == ownerClientID
}
