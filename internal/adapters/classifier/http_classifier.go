// Package classifier is the HTTP client for the cost-center classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
)

type suggestResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// HTTPClassifier posts line descriptions to the classifier and reads ranked suggestions.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier client. The timeout bounds each call,
// including when the caller's context has no deadline.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

var _ clients.Classifier = (*HTTPClassifier)(nil)

// Suggest returns suggestions sorted by confidence, highest first. Any
// transport or protocol failure is reported as ErrClassifierUnavailable.
func (c *HTTPClassifier) Suggest(ctx context.Context, req domain.ClassificationRequest) ([]domain.Suggestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", apperrors.ErrClassifierUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out suggestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", apperrors.ErrClassifierUnavailable, err)
	}

	suggestions := out.Suggestions[:0]
	for _, s := range out.Suggestions {
		if s.AccountID == "" || s.Confidence < 0 || s.Confidence > 1 {
			continue
		}
		suggestions = append(suggestions, s)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions, nil
}
