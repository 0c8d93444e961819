package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/otpless/invoice-service/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository persists invoices in PostgreSQL and doubles as the number
// allocator, backed by an atomically incremented sequence table.
type Repository struct {
	db     dbtx
	pool   *pgxpool.Pool
	prefix int
}

// NewRepository constructs the pgx-backed store.
func NewRepository(pool *pgxpool.Pool, cfg *Config) *Repository {
	return &Repository{db: pool, pool: pool, prefix: cfg.NumberPrefix()}
}

const invoiceColumns = `
	id, customer_id, invoice_number, issue_date, due_date, status,
	currency_code, subtotal::text, tax_amount::text, tax_type,
	total_amount::text, customer_details, payment_details, notes,
	created_at, updated_at`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT`+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.lineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return inv, nil
}

// Put inserts or fully replaces an invoice and its line items in one
// transaction. A unique violation on invoice_number surfaces as an
// AllocationConflictError since it means two allocations collided.
func (r *Repository) Put(ctx context.Context, inv *Invoice) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		customerDetails, err := json.Marshal(inv.CustomerDetails)
		if err != nil {
			return fmt.Errorf("encode customer details: %w", err)
		}
		paymentDetails, err := json.Marshal(inv.PaymentDetails)
		if err != nil {
			return fmt.Errorf("encode payment details: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO invoices (
				id, customer_id, invoice_number, issue_date, due_date, status,
				currency_code, subtotal, tax_amount, tax_type, total_amount,
				customer_details, payment_details, notes, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (id) DO UPDATE SET
				invoice_number = EXCLUDED.invoice_number,
				issue_date     = EXCLUDED.issue_date,
				due_date       = EXCLUDED.due_date,
				status         = EXCLUDED.status,
				currency_code  = EXCLUDED.currency_code,
				subtotal       = EXCLUDED.subtotal,
				tax_amount     = EXCLUDED.tax_amount,
				tax_type       = EXCLUDED.tax_type,
				total_amount   = EXCLUDED.total_amount,
				customer_details = EXCLUDED.customer_details,
				payment_details  = EXCLUDED.payment_details,
				notes          = EXCLUDED.notes,
				updated_at     = EXCLUDED.updated_at
		`,
			inv.ID, inv.CustomerID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
			inv.Status, inv.CurrencyCode, inv.Subtotal.StringFixed(2),
			inv.TaxAmount.StringFixed(2), taxTypePtr(inv.TaxType),
			inv.TotalAmount.StringFixed(2), customerDetails, paymentDetails,
			inv.Notes, inv.CreatedAt, inv.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("replace line items: %w", err)
		}
		for i, item := range inv.LineItems {
			_, err := tx.Exec(ctx, `
				INSERT INTO invoice_line_items (
					id, invoice_id, service_name, description, quantity,
					unit_price, amount, currency_code, line_order
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			`, item.ID, inv.ID, item.ServiceName, item.Description, item.Quantity,
				item.UnitPrice.StringFixed(2), item.Amount.StringFixed(2),
				item.CurrencyCode, i+1)
			if err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return &AllocationConflictError{Number: inv.Number()}
		}
		return err
	}
	return nil
}

func (r *Repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argPos))
		args = append(args, *req.StartDate)
		argPos++
	}
	if req.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argPos))
		args = append(args, *req.EndDate)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY issue_date DESC, id LIMIT $%d OFFSET $%d`,
		invoiceColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range invoices {
		items, err := r.lineItems(ctx, invoices[i].ID)
		if err != nil {
			return nil, 0, err
		}
		invoices[i].LineItems = items
	}
	return invoices, total, nil
}

// Allocate returns the next invoice number for the issue period. The
// sequence row is incremented atomically inside the database, so two
// concurrent callers can never observe the same value.
func (r *Repository) Allocate(ctx context.Context, issueDate time.Time) (string, error) {
	period := issueDate.UTC().Format("200601")
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_sequences (prefix, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, period)
		DO UPDATE SET seq = invoice_sequences.seq + 1
		RETURNING seq
	`, r.prefix, period).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return fmt.Sprintf("INV-%d-%s-%04d", r.prefix, period, seq), nil
}

func (r *Repository) lineItems(ctx context.Context, invoiceID uuid.UUID) ([]LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, service_name, description, quantity, unit_price::text,
		       amount::text, currency_code
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY line_order
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get line items: %w", err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var (
			item      LineItem
			unitPrice string
			amount    string
		)
		if err := rows.Scan(&item.ID, &item.ServiceName, &item.Description,
			&item.Quantity, &unitPrice, &amount, &item.CurrencyCode); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv             Invoice
		subtotal        string
		taxAmount       string
		totalAmount     string
		taxType         *string
		customerDetails []byte
		paymentDetails  []byte
	)
	err := row.Scan(
		&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &inv.IssueDate,
		&inv.DueDate, &inv.Status, &inv.CurrencyCode, &subtotal, &taxAmount,
		&taxType, &totalAmount, &customerDetails, &paymentDetails, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if inv.TaxAmount, err = decimal.NewFromString(taxAmount); err != nil {
		return nil, fmt.Errorf("parse tax amount: %w", err)
	}
	if inv.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	if taxType != nil {
		t := TaxType(*taxType)
		inv.TaxType = &t
	}
	if err := json.Unmarshal(customerDetails, &inv.CustomerDetails); err != nil {
		return nil, fmt.Errorf("decode customer details: %w", err)
	}
	if err := json.Unmarshal(paymentDetails, &inv.PaymentDetails); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}
	return &inv, nil
}

func taxTypePtr(t *TaxType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
