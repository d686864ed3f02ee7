package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

// MinPredictTitle is the shortest title worth a prediction.
const MinPredictTitle = 3

// Predictor picks the best category for an expense title from categories.
type Predictor interface {
	Predict(ctx context.Context, title string, categories []string) (string, error)
}

// HTTPPredictor calls a prediction endpoint that accepts
// {"title", "categories"} and answers {"category"}.
type HTTPPredictor struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPPredictor(endpoint string, client *http.Client) *HTTPPredictor {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPredictor{Endpoint: endpoint, Client: client}
}

type predictRequest struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
}

type predictResponse struct {
	Category string `json:"category"`
}

func (h *HTTPPredictor) Predict(ctx context.Context, title string, categories []string) (string, error) {
	if title == "" || len(categories) == 0 {
		return "", errors.New("title and categories are required")
	}
	var out predictResponse
	if err := postJSON(ctx, h.Client, h.Endpoint, predictRequest{Title: title, Categories: categories}, &out); err != nil {
		return "", fmt.Errorf("predict category: %w", err)
	}
	return out.Category, nil
}

// SuggestCategory asks p for the category of title. It returns false when
// the title is too short, there are no categories, the call fails, or the
// answer is not one of categories; the caller then keeps its own choice.
// A match is returned with the casing used in categories.
func SuggestCategory(ctx context.Context, p Predictor, title string, categories []string) (string, bool) {
	title = strings.TrimSpace(title)
	if p == nil || utf8.RuneCountInString(title) < MinPredictTitle || len(categories) == 0 {
		return "", false
	}
	got, err := p.Predict(ctx, title, categories)
	if err != nil {
		slog.Debug("Category prediction failed", "title", title, "error", err)
		return "", false
	}
	if name, ok := matchCategory(got, categories); ok {
		return name, true
	}
	slog.Debug("Ignoring unknown predicted category", "title", title, "category", got)
	return "", false
}

// matchCategory finds name in categories ignoring case.
func matchCategory(name string, categories []string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
