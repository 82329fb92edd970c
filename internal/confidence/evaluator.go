// Package confidence scores draft transactions for completeness.
//
// The score is a [0,1] metric over five equally weighted field checks.
// Quick save (auto-acceptance without manual review) additionally
// requires a positive total and a score at or above the threshold;
// with five 0.2-weight checks the threshold is only reachable when
// every check passes.
package confidence

import (
	"strings"
	"time"

	"github.com/snapledger/snapledger/internal/model"
)

// QuickSaveThreshold is the minimum score for auto-acceptance.
// 4/5 checks score 0.80, so in practice only a fully complete draft
// qualifies. Preserved as observed product behavior.
const QuickSaveThreshold = 0.85

const checkCount = 5

// Breakdown exposes each field check plus the resulting score, for
// review-screen diagnostics.
type Breakdown struct {
	HasMerchant  bool
	HasTotal     bool
	HasValidDate bool
	HasCategory  bool
	HasValidItem bool
	Score        float64
}

// Evaluate runs all five checks against the draft. Deterministic and
// side-effect free.
func Evaluate(tx model.DraftTransaction) Breakdown {
	b := Breakdown{
		HasMerchant:  strings.TrimSpace(tx.Merchant) != "",
		HasTotal:     tx.Total > 0,
		HasValidDate: validDate(tx.Date),
		HasCategory:  tx.Category != "" && tx.Category != model.CategoryOther,
		HasValidItem: hasValidItem(tx.Items),
	}

	passed := 0
	for _, ok := range []bool{b.HasMerchant, b.HasTotal, b.HasValidDate, b.HasCategory, b.HasValidItem} {
		if ok {
			passed++
		}
	}
	b.Score = float64(passed) / checkCount

	return b
}

// Score returns the completeness score for the draft.
func Score(tx model.DraftTransaction) float64 {
	return Evaluate(tx).Score
}

// QualifiesForQuickSave reports whether the draft may be accepted
// without manual review.
func QualifiesForQuickSave(tx model.DraftTransaction) bool {
	return tx.Total > 0 && Score(tx) >= QuickSaveThreshold
}

func validDate(date string) bool {
	_, err := time.Parse(model.DateLayout, date)
	return err == nil
}

func hasValidItem(items []model.LineItem) bool {
	for _, item := range items {
		if strings.TrimSpace(item.Name) != "" && item.Price >= 0 {
			return true
		}
	}
	return false
}
