package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/amnii/internal/domain/resource"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourcesRepo keeps every catalog kind in one table, discriminated by kind.
type ResourcesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewResourcesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ResourcesRepo {
	return &ResourcesRepo{pool: pool, prom: prom}
}

func (r *ResourcesRepo) Create(ctx context.Context, kind resource.Kind, in resource.Input) (resource.Resource, error) {
	res := resource.New(kind, in)

	err := r.prom.ObserveDB("resources_create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO resources (id, kind, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			res.ID, string(kind), res.Name, res.CreatedAt, res.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return resource.Resource{}, err
	}

	return res, nil
}

func (r *ResourcesRepo) GetByID(ctx context.Context, kind resource.Kind, id string) (resource.Resource, error) {
	res := resource.Resource{Kind: kind}

	err := r.prom.ObserveDB("resources_get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, created_at, updated_at
			FROM resources
			WHERE kind = $1 AND id = $2`,
			string(kind), id,
		).Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt)
	})

	if err != nil {
		return resource.Resource{}, notFound(err)
	}
	return res, nil
}

// List fetches one row past the limit to learn whether another page exists.
func (r *ResourcesRepo) List(ctx context.Context, kind resource.Kind, f resource.ListFilter) ([]resource.Resource, bool, error) {
	query := `SELECT id, name, created_at, updated_at
		FROM resources
		WHERE kind = $1`
	args := []any{string(kind)}

	if f.AfterID != "" {
		query += ` AND (name, id) > ($2, $3::uuid) ORDER BY name ASC, id ASC LIMIT $4`
		args = append(args, f.AfterName, f.AfterID, f.Limit+1)
	} else {
		query += ` ORDER BY name ASC, id ASC LIMIT $2`
		args = append(args, f.Limit+1)
	}

	out := make([]resource.Resource, 0, f.Limit+1)

	err := r.prom.ObserveDB("resources_list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			res := resource.Resource{Kind: kind}
			if err := rows.Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt); err != nil {
				return err
			}
			out = append(out, res)
		}
		return rows.Err()
	})

	if err != nil {
		if isBadID(err) {
			return nil, false, resource.ErrNotFound
		}
		return nil, false, err
	}

	hasMore := len(out) > f.Limit
	if hasMore {
		out = out[:f.Limit]
	}
	return out, hasMore, nil
}

func (r *ResourcesRepo) Update(ctx context.Context, kind resource.Kind, id string, in resource.Input) (resource.Resource, error) {
	res := resource.Resource{Kind: kind}

	err := r.prom.ObserveDB("resources_update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE resources
			SET name = $3,
				updated_at = NOW()
			WHERE kind = $1 AND id = $2
			RETURNING id, name, created_at, updated_at`,
			string(kind), id, in.Name,
		).Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt)
	})

	if err != nil {
		return resource.Resource{}, notFound(err)
	}
	return res, nil
}

func (r *ResourcesRepo) Delete(ctx context.Context, kind resource.Kind, id string) (resource.Resource, error) {
	res := resource.Resource{Kind: kind}

	err := r.prom.ObserveDB("resources_delete", func() error {
		return r.pool.QueryRow(ctx,
			`DELETE FROM resources
			WHERE kind = $1 AND id = $2
			RETURNING id, name, created_at, updated_at`,
			string(kind), id,
		).Scan(&res.ID, &res.Name, &res.CreatedAt, &res.UpdatedAt)
	})

	if err != nil {
		return resource.Resource{}, notFound(err)
	}
	return res, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return resource.ErrNotFound
	}
	return err
}
