// repository/item/itemRepository.go
package itemrepo

import (
	"context"
	"database/sql"

	"github.com/AbderaoufHammouda/Dz-rent-it-V2/model"
)

type Repo interface {
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, it *model.Item) error
	Get(ctx context.Context, id int64) (*model.Item, error)
	ListActive(ctx context.Context) ([]model.Item, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, it *model.Item) error {
	const q = `
		INSERT INTO items (owner_id, title, description, price_per_day, deposit_amount, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		it.OwnerID, it.Title, it.Description, it.PricePerDay, it.DepositAmount, it.IsActive,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
}

func (r *repo) Update(ctx context.Context, it *model.Item) error {
	const q = `
		UPDATE items
		SET title = $2,
		    description = $3,
		    price_per_day = $4,
		    deposit_amount = $5,
		    is_active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, q,
		it.ID, it.Title, it.Description, it.PricePerDay, it.DepositAmount, it.IsActive,
	).Scan(&it.UpdatedAt)
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Item, error) {
	const q = `
		SELECT id, owner_id, title, description, price_per_day, deposit_amount, is_active,
		       created_at, updated_at
		FROM items
		WHERE id = $1`
	it := &model.Item{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.OwnerID, &it.Title, &it.Description,
		&it.PricePerDay, &it.DepositAmount, &it.IsActive,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) ListActive(ctx context.Context) ([]model.Item, error) {
	const q = `
		SELECT id, owner_id, title, description, price_per_day, deposit_amount, is_active,
		       created_at, updated_at
		FROM items
		WHERE is_active
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID, &it.OwnerID, &it.Title, &it.Description,
			&it.PricePerDay, &it.DepositAmount, &it.IsActive,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
