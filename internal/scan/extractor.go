// Package scan turns receipt images into personal ledger entries.
package scan

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Candidate is one expense read off a receipt. Date, Category and
// PaymentMode may be empty.
type Candidate struct {
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
	Category    string          `json:"category,omitempty"`
	PaymentMode string          `json:"paymentMode,omitempty"`
}

// Extraction is what an Extractor found in an image.
type Extraction struct {
	Expenses []Candidate `json:"expenses"`
	RawText  string      `json:"rawText,omitempty"`
}

// Extractor reads expenses from an image given as a data URL.
type Extractor interface {
	Extract(ctx context.Context, imageData string) (*Extraction, error)
}

// HTTPExtractor calls an extraction endpoint that accepts
// {"imageData": "<data URL>"} and answers with an Extraction.
type HTTPExtractor struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPExtractor(endpoint string, client *http.Client) *HTTPExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPExtractor{Endpoint: endpoint, Client: client}
}

type extractRequest struct {
	ImageData string `json:"imageData"`
}

func (h *HTTPExtractor) Extract(ctx context.Context, imageData string) (*Extraction, error) {
	if imageData == "" {
		return nil, errors.New("no image data provided")
	}
	var out Extraction
	if err := postJSON(ctx, h.Client, h.Endpoint, extractRequest{ImageData: imageData}, &out); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return &out, nil
}

// DataURL encodes an image file's bytes as a data URL.
func DataURL(data []byte) string {
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
