// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/models"
)

type ProductHandler struct {
	store *models.ProductStore
}

func NewProductHandler(store *models.ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpProductRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpProductRead)).Get("/{productID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpProductManage)).Post("/", h.Create)
}

type ProductPayload struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Version     string  `json:"version"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		RespondStoreError(w, err, "list products")
		return
	}
	RespondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "productID", "product ID")
	if !ok {
		return
	}

	product, err := h.store.Get(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err, "get product")
		return
	}
	RespondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.store.Create(r.Context(), &models.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Version:     payload.Version,
		Price:       payload.Price,
	})
	if err != nil {
		RespondStoreError(w, err, "create product")
		return
	}
	RespondJSON(w, http.StatusCreated, product)
}
