package models

// AuthorizeRequest describes an authorization hold to place against a
// customer's payment method for the full booking amount.
type AuthorizeRequest struct {
	Amount          int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Description     string
}

// CaptureResult is the gateway's confirmation of a (partial) capture.
type CaptureResult struct {
	CapturedAmount int64
	AlreadyDone    bool
}

// RefundResult is the gateway's confirmation of a refund.
type RefundResult struct {
	RefundID string
	Amount   int64
}

// TransferResult is the gateway's confirmation of a provider payout.
type TransferResult struct {
	TransferID string
	Amount     int64
}
