// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductStore struct {
	db dbinterface.Querier
}

func NewProductStore(db dbinterface.Querier) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) Create(ctx context.Context, product *Product) (*Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if product.Price < 0 {
		return nil, NewValidationError("price", "must not be negative")
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, version, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		product.Name, product.Description, product.Version, product.Price, now, now,
	).Scan(&product.ID)
	if err != nil {
		return nil, err
	}

	return product, nil
}

const productColumns = `id, name, description, version, price, created_at, updated_at`

func scanProductRow(scan func(dest ...any) error) (*Product, error) {
	product := &Product{}
	err := scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Version,
		&product.Price,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProductRow(row.Scan)
}

func (s *ProductStore) List(ctx context.Context) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		product, err := scanProductRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}
