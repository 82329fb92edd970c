package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CapturedImage is a photographed receipt awaiting analysis. It is
// owned by the capture buffer until its BatchReceipt exists.
type CapturedImage struct {
	CapturedAt time.Time
	ID         string
	Bytes      []byte
}

// NewCapturedImage wraps raw image bytes with a fresh identifier.
func NewCapturedImage(data []byte) CapturedImage {
	return CapturedImage{
		ID:         uuid.NewString(),
		Bytes:      data,
		CapturedAt: time.Now(),
	}
}

// Hash fingerprints the image payload. Identical pixels hash
// identically regardless of capture time or id, which is what lets the
// analysis cache absorb retries.
func (c *CapturedImage) Hash() string {
	hash := sha256.Sum256(c.Bytes)
	return fmt.Sprintf("%x", hash)
}
