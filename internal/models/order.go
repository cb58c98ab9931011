package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmetijamarosa/storefront/internal/cart"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusPaymentFailed  OrderStatus = "payment_failed"
)

// Customer is the buyer's contact and delivery information.
type Customer struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"max=50"`
	Address    string `json:"address" validate:"required,max=300"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
	Notes      string `json:"notes,omitempty" validate:"max=1000"`
}

type Order struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     int64               `json:"order_number"`
	Status          OrderStatus         `json:"status"`
	Items           []cart.DisplayItem  `json:"items"`
	Gifts           []cart.GiftLineItem `json:"gifts"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Shipping        decimal.Decimal     `json:"shipping"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Customer        Customer            `json:"customer"`
	PaymentIntentID string              `json:"payment_intent_id,omitempty"`
	FailureReason   string              `json:"failure_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	PaidAt          time.Time           `json:"paid_at"`
}

// NewOrderFromQuote builds a pending order from a priced cart.
func NewOrderFromQuote(quote *cart.Quote, customer Customer) *Order {
	return &Order{
		ID:       uuid.New(),
		Status:   StatusPendingPayment,
		Items:    quote.Items,
		Gifts:    quote.Gifts,
		Subtotal: quote.Subtotal,
		Shipping: quote.Shipping,
		Total:    quote.Total,
		Currency: "eur",
		Customer: customer,
	}
}

// AmountMinorUnits returns the order total in cents.
func (o *Order) AmountMinorUnits() int64 {
	return o.Total.Shift(2).Round(0).IntPart()
}

func (o *Order) IsPaid() bool {
	return o != nil && o.Status == StatusPaid
}
