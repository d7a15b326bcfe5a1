package notify

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/shop_payments/internal/models"
)

type Kind string

const (
	KindOrderCreated     Kind = "order_created"
	KindPaymentSucceeded Kind = "payment_succeeded"
	KindPaymentFailed    Kind = "payment_failed"
	KindOrderCanceled    Kind = "order_canceled"
)

type Message struct {
	Kind    Kind   `json:"kind"`
	OrderID uint   `json:"order_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier accepts a message without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Sender delivers one message and reports whether it got through.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func OrderCreated(o *models.Order, u *models.User) Message {
	return Message{
		Kind:    KindOrderCreated,
		OrderID: o.ID,
		To:      u.Email,
		Subject: fmt.Sprintf("Order #%d Created", o.ID),
		Body: fmt.Sprintf("Hi %s, your order has been created. Total: %s %s",
			u.Username, o.TotalAmount.StringFixed(2), o.Currency),
	}
}

func PaymentSucceeded(o *models.Order, u *models.User) Message {
	return Message{
		Kind:    KindPaymentSucceeded,
		OrderID: o.ID,
		To:      u.Email,
		Subject: fmt.Sprintf("Order #%d Paid", o.ID),
		Body:    fmt.Sprintf("Hi %s, your payment was successful. Thank you!", u.Username),
	}
}

func PaymentFailed(o *models.Order, u *models.User) Message {
	return Message{
		Kind:    KindPaymentFailed,
		OrderID: o.ID,
		To:      u.Email,
		Subject: fmt.Sprintf("Order #%d Payment Failed", o.ID),
		Body:    fmt.Sprintf("Hi %s, your payment failed. Please try again.", u.Username),
	}
}

func OrderCanceled(o *models.Order, u *models.User) Message {
	return Message{
		Kind:    KindOrderCanceled,
		OrderID: o.ID,
		To:      u.Email,
		Subject: fmt.Sprintf("Order #%d Canceled", o.ID),
		Body:    fmt.Sprintf("Hi %s, your order has been canceled and its items released.", u.Username),
	}
}
