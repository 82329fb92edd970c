package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/snapledger/snapledger/internal/model"
)

// draftResponse mirrors the JSON shape the model is prompted to return.
type draftResponse struct {
	Merchant    string         `json:"merchant"`
	Date        string         `json:"date"`
	Time        string         `json:"time"`
	Currency    string         `json:"currency"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	City        string         `json:"city"`
	Country     string         `json:"country"`
	Items       []itemResponse `json:"items"`
	Total       int64          `json:"total"`
}

type itemResponse struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int    `json:"qty"`
}

// alternate date layouts the model is known to emit despite the prompt
var fallbackDateLayouts = []string{
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
}

// ParseDraft extracts a draft transaction from raw model output. It
// tolerates markdown code fences and leading/trailing prose around the
// JSON object, but a response without a JSON object is an error.
func ParseDraft(text string) (*model.DraftTransaction, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("unterminated JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var resp draftResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	draft := &model.DraftTransaction{
		Merchant:    strings.TrimSpace(resp.Merchant),
		Date:        normalizeDate(resp.Date),
		Time:        strings.TrimSpace(resp.Time),
		Total:       resp.Total,
		Currency:    strings.ToUpper(strings.TrimSpace(resp.Currency)),
		Category:    strings.TrimSpace(resp.Category),
		Subcategory: strings.TrimSpace(resp.Subcategory),
		City:        strings.TrimSpace(resp.City),
		Country:     strings.TrimSpace(resp.Country),
	}

	if draft.Category == "" {
		draft.Category = model.CategoryOther
	}

	for _, item := range resp.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		draft.Items = append(draft.Items, model.LineItem{
			Name:  name,
			Price: item.Price,
			Qty:   qty,
		})
	}

	return draft, nil
}

// normalizeDate coerces the model's date string to model.DateLayout.
// Unparseable dates are passed through empty so the confidence check
// flags the draft for review instead of inventing a date.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}

	if parsed, err := time.Parse(model.DateLayout, date); err == nil {
		return parsed.Format(model.DateLayout)
	}

	for _, layout := range fallbackDateLayouts {
		if parsed, err := time.Parse(layout, date); err == nil {
			return parsed.Format(model.DateLayout)
		}
	}

	return ""
}
