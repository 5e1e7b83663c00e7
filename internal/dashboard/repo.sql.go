package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/filter"
	"github.com/scout-analytics/scout/internal/platform/db"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads transaction records from PostgreSQL. It pushes the filter
// dimensions down to SQL so pages arrive pre-filtered; the aggregator's local
// Apply stays the safety net for sources without that ability.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const transactionColumns = `
SELECT t.id, t.created_at, t.total_amount,
       COALESCE(t.customer_id::text, ''), t.store_id::text,
       s.name, s.barangay, s.city, s.region,
       COALESCE(c.age_group, ''), COALESCE(c.gender, ''), COALESCE(c.income_bracket, ''),
       COALESCE((
           SELECT json_agg(json_build_object(
               'product_id', i.product_id,
               'quantity', i.quantity,
               'unit_price', i.unit_price,
               'unit_cost', COALESCE(i.unit_cost, 0),
               'name', p.name,
               'category', p.category,
               'brand', b.name
           ) ORDER BY i.id)
           FROM transaction_items i
           JOIN products p ON p.id = i.product_id
           LEFT JOIN brands b ON b.id = p.brand_id
           WHERE i.transaction_id = t.id
       ), '[]'::json)
FROM transactions t
JOIN stores s ON s.id = t.store_id
LEFT JOIN customers c ON c.id = t.customer_id
`

// FetchPage returns one page of filtered transactions ordered by creation
// time. hasMore reports whether the page came back full.
func (r *Repository) FetchPage(ctx context.Context, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errors.New("dashboard repository not initialised")
	}
	return fetchPage(ctx, r.pool, sel, offset, limit)
}

func fetchPage(ctx context.Context, q querier, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, bool, error) {
	if limit <= 0 {
		limit = PageSize
	}
	where, args := buildWhere(sel)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY t.created_at ASC, t.id ASC LIMIT $%d OFFSET $%d",
		transactionColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, false, classify(err)
	}
	defer rows.Close()

	txs := []aggregate.Transaction{}
	for rows.Next() {
		var (
			tx      aggregate.Transaction
			rawItem []byte
		)
		if err := rows.Scan(
			&tx.ID, &tx.CreatedAt, &tx.TotalAmount,
			&tx.CustomerID, &tx.StoreID,
			&tx.Store.Name, &tx.Store.Barangay, &tx.Store.City, &tx.Store.Region,
			&tx.Customer.AgeGroup, &tx.Customer.Gender, &tx.Customer.IncomeBracket,
			&rawItem,
		); err != nil {
			return nil, false, err
		}
		tx.Store.ID = tx.StoreID
		tx.Customer.ID = tx.CustomerID
		if err := decodeItems(rawItem, &tx); err != nil {
			return nil, false, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, false, classify(err)
	}
	return txs, len(txs) == limit, nil
}

// ListTransactions returns one page of the flat listing plus the total count.
// Count and page run inside one transaction so they see the same snapshot.
func (r *Repository) ListTransactions(ctx context.Context, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, int, error) {
	if r == nil || r.pool == nil {
		return nil, 0, errors.New("dashboard repository not initialised")
	}
	var (
		txs   []aggregate.Transaction
		total int
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		where, args := buildWhere(sel)
		if err := tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM transactions t JOIN stores s ON s.id = t.store_id"+where, args...,
		).Scan(&total); err != nil {
			return classify(err)
		}
		var err error
		txs, _, err = fetchPage(ctx, tx, sel, offset, limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// buildWhere pushes the five filter dimensions into SQL. Empty sets add no
// predicate, matching the "no restriction" contract.
func buildWhere(sel filter.Selection) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if sel.From != nil {
		clauses = append(clauses, "t.created_at >= "+arg(*sel.From))
	}
	if sel.To != nil {
		clauses = append(clauses, "t.created_at <= "+arg(*sel.To))
	}
	if len(sel.Barangays) > 0 {
		clauses = append(clauses, "s.barangay = ANY("+arg(sel.Barangays)+")")
	}
	if len(sel.Stores) > 0 {
		clauses = append(clauses, "s.name = ANY("+arg(sel.Stores)+")")
	}
	if len(sel.Categories) > 0 {
		clauses = append(clauses, `EXISTS (
            SELECT 1 FROM transaction_items i
            JOIN products p ON p.id = i.product_id
            WHERE i.transaction_id = t.id AND p.category = ANY(`+arg(sel.Categories)+"))")
	}
	if len(sel.Brands) > 0 {
		clauses = append(clauses, `EXISTS (
            SELECT 1 FROM transaction_items i
            JOIN products p ON p.id = i.product_id
            JOIN brands b ON b.id = p.brand_id
            WHERE i.transaction_id = t.id AND b.name = ANY(`+arg(sel.Brands)+"))")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type itemRow struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"unit_cost"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand"`
}

func decodeItems(raw []byte, tx *aggregate.Transaction) error {
	if len(raw) == 0 {
		return nil
	}
	var items []itemRow
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("decode items for %s: %w", tx.ID, err)
	}
	for _, it := range items {
		tx.Items = append(tx.Items, aggregate.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
			Product: aggregate.Product{
				ID:       it.ProductID,
				Name:     it.Name,
				Category: it.Category,
				Brand:    aggregate.Brand{Name: it.Brand},
			},
		})
	}
	return nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres %s: %w", pgErr.Code, err)
	}
	return err
}
