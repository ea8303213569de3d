package models

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// SubscriptionRecord is the per-customer subscription state kept in the user
// store, keyed by the email the payment provider sends. Timestamps are stored
// as ISO-8601 strings; UpdatedAt is refreshed on every write.
type SubscriptionRecord struct {
	Email              string `dynamodbav:"email" redis:"email" json:"email"`
	SubscriptionStatus string `dynamodbav:"subscriptionStatus,omitempty" redis:"subscriptionStatus" json:"subscription_status,omitempty"`
	SubscriptionID     string `dynamodbav:"subscriptionId,omitempty" redis:"subscriptionId" json:"subscription_id,omitempty"`
	PriceID            string `dynamodbav:"priceId,omitempty" redis:"priceId" json:"price_id,omitempty"`
	LastPaymentAt      string `dynamodbav:"lastPaymentAt,omitempty" redis:"lastPaymentAt" json:"last_payment_at,omitempty"`
	UpdatedAt          string `dynamodbav:"updatedAt,omitempty" redis:"updatedAt" json:"updated_at,omitempty"`
}
