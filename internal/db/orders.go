package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kmetijamarosa/storefront/internal/models"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

const orderColumns = `
	id, order_number, status, items, gift_items, subtotal::text, shipping::text, total::text,
	currency, customer, COALESCE(payment_intent_id, ''), COALESCE(failure_reason, ''), created_at, paid_at`

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = models.StatusPendingPayment
	}

	items, err := encodeJSON(order.Items, "order items")
	if err != nil {
		return err
	}
	gifts, err := encodeJSON(order.Gifts, "gift items")
	if err != nil {
		return err
	}
	customer, err := encodeJSON(order.Customer, "customer")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, status, items, gift_items, subtotal, shipping, total, currency, customer, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10)
		RETURNING order_number, created_at
	`
	err = s.pool.QueryRow(ctx, query,
		order.ID, string(order.Status), items, gifts,
		order.Subtotal.StringFixed(2), order.Shipping.StringFixed(2), order.Total.StringFixed(2),
		order.Currency, customer, nullText(order.PaymentIntentID),
	).Scan(&order.OrderNumber, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *OrderStore) AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE orders SET payment_intent_id = $2 WHERE id = $1 AND status = 'pending_payment'`, orderID, paymentIntentID)
	if err != nil {
		return fmt.Errorf("attach payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending_payment", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.getOne(ctx, "SELECT"+orderColumns+" FROM orders WHERE id = $1", orderID)
}

func (s *OrderStore) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return s.getOne(ctx, "SELECT"+orderColumns+" FROM orders WHERE payment_intent_id = $1", paymentIntentID)
}

// MarkPaid moves the order owning paymentIntentID to paid. The bool is false when the order
// was already paid, so callers can skip side effects on redelivered events.
func (s *OrderStore) MarkPaid(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {
	query := `
		UPDATE orders
		SET status = $2, paid_at = NOW(), failure_reason = NULL
		WHERE payment_intent_id = $1 AND status IN ('pending_payment', 'payment_failed')
		RETURNING` + orderColumns
	order, err := s.getOne(ctx, query, paymentIntentID, string(models.StatusPaid))
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		return nil, false, err
	}

	existing, err := s.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, false, err
	}
	if existing.IsPaid() {
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("%w: order %s is %s", ErrInvalidStatusTransition, existing.ID, existing.Status)
}

func (s *OrderStore) MarkFailed(ctx context.Context, paymentIntentID, reason string) error {
	query := `
		UPDATE orders
		SET status = $2, failure_reason = $3
		WHERE payment_intent_id = $1 AND status IN ('pending_payment', 'payment_failed')
	`
	tag, err := s.pool.Exec(ctx, query, paymentIntentID, string(models.StatusPaymentFailed), nullText(reason))
	if err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := s.GetByPaymentIntent(ctx, paymentIntentID); err != nil {
		return err
	}
	return fmt.Errorf("%w: expected pending_payment/payment_failed", ErrInvalidStatusTransition)
}

func (s *OrderStore) getOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	order, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order                     models.Order
		status                    string
		items, gifts, customer    []byte
		subtotal, shipping, total string
		paidAt                    pgtype.Timestamptz
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &status, &items, &gifts, &subtotal, &shipping, &total,
		&order.Currency, &customer, &order.PaymentIntentID, &order.FailureReason, &order.CreatedAt, &paidAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(gifts, &order.Gifts); err != nil {
		return nil, fmt.Errorf("decode gift items: %w", err)
	}
	if err := json.Unmarshal(customer, &order.Customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}

	if order.Subtotal, err = parseNumeric(subtotal, "subtotal"); err != nil {
		return nil, err
	}
	if order.Shipping, err = parseNumeric(shipping, "shipping"); err != nil {
		return nil, err
	}
	if order.Total, err = parseNumeric(total, "total"); err != nil {
		return nil, err
	}
	return &order, nil
}
