package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxBuyerID contextKey = "buyer_id"

// BuyerIDFromContext returns the buyer resolved by the Buyer middleware.
func BuyerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxBuyerID).(uuid.UUID)
	return v, ok && v != uuid.Nil
}

// WithBuyerID injects the buyer identifier into the context.
func WithBuyerID(ctx context.Context, buyerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBuyerID, buyerID)
}
