package stock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const stockQuery = `
SELECT
	i.sku::text,
	COALESCE(i.description, ''),
	COALESCE(i.packaging, ''),
	COALESCE(i.supplier_code, ''),
	COALESCE(i.emb1::text, ''),
	COALESCE(i.emb9::text, ''),
	COALESCE(i.age_days::text, ''),
	COALESCE(i.miss_sale_days::text, ''),
	COALESCE(g.name, ''),
	COALESCE(to_char(i.generated_at, 'YYYY-MM-DD HH24:MI:SS'), '')
FROM stock_items i
LEFT JOIN stock_groups g ON g.code = i.group_code
WHERE i.miss_sale_days > 1
  AND i.emb1 > 1
  AND i.supplier_code IS NOT NULL
  AND btrim(i.supplier_code) <> ''
ORDER BY i.id`

const stampQuery = `SELECT COALESCE(to_char(max(generated_at), 'YYYY-MM-DD HH24:MI:SS'), '') FROM stock_items`

// dbtx is the subset of pgxpool.Pool the source needs.
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource reads the review rows straight from the stock tables.
type PostgresSource struct {
	db dbtx
}

// NewPostgresSource wraps a pool or transaction.
func NewPostgresSource(db dbtx) *PostgresSource {
	return &PostgresSource{db: db}
}

// Fetch runs the review query.
func (s *PostgresSource) Fetch(ctx context.Context) ([]RawProduct, error) {
	rows, err := s.db.Query(ctx, stockQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var out []RawProduct
	for rows.Next() {
		var (
			r                                     RawProduct
			sku, desc, pack, supplier, emb1, emb9 string
			age, missSale, sector, stamp          string
		)
		if err := rows.Scan(&sku, &desc, &pack, &supplier, &emb1, &emb9, &age, &missSale, &sector, &stamp); err != nil {
			return nil, fmt.Errorf("stock: scan row: %w", err)
		}
		r.SKU = FlexString(sku)
		r.Description = FlexString(desc)
		r.Packaging = FlexString(pack)
		r.Supplier = FlexString(supplier)
		r.Emb1 = FlexString(emb1)
		r.Emb9 = FlexString(emb9)
		r.Age = FlexString(age)
		r.MissSale = FlexString(missSale)
		r.Sector = FlexString(sector)
		r.DataStamp = FlexString(stamp)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrSourceUnavailable, err)
	}
	return out, nil
}

// Stamp returns the newest generation time of the stock rows.
func (s *PostgresSource) Stamp(ctx context.Context) (string, error) {
	var stamp string
	if err := s.db.QueryRow(ctx, stampQuery).Scan(&stamp); err != nil {
		return "", fmt.Errorf("%w: stamp: %v", ErrSourceUnavailable, err)
	}
	return stamp, nil
}
