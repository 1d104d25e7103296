// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func TestLicenseHandler_ClientCannotReadForeignLicense(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "api-handlers")
	owner := createClientFixture(t, db)
	intruder := createClientFixture(t, db)

	router := newAPIRouter(db, domain.RoleClient, intruder.Client.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/licenses/%d", owner.License.ID), nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), owner.License.LicenseKey)
}

func TestLicenseHandler_ClientReadsOwnLicense(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "api-handlers")
	owner := createClientFixture(t, db)

	router := newAPIRouter(db, domain.RoleClient, owner.Client.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/licenses/%d", owner.License.ID), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), owner.License.LicenseKey)
}

func TestLicenseHandler_StaffReadsAnyLicense(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "api-handlers")
	owner := createClientFixture(t, db)

	router := newAPIRouter(db, domain.RoleSupport, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/licenses/%d", owner.License.ID), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
