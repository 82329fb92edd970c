package model

// ReceiptStatus indicates where a batch item stands in review.
type ReceiptStatus string

// Receipt status constants.
const (
	StatusReady       ReceiptStatus = "READY"
	StatusNeedsReview ReceiptStatus = "NEEDS_REVIEW"
	StatusError       ReceiptStatus = "ERROR"
)

// BatchReceipt is one captured image's processing record within a
// multi-image capture session. Its ID is stable for the life of the
// session and never collides; Index records capture order.
type BatchReceipt struct {
	ID          string
	Error       string
	ImageRef    string
	Transaction DraftTransaction
	Index       int
	Confidence  float64
	Status      ReceiptStatus
}
