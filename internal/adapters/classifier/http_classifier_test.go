package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/adapters/classifier"
	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRequest = domain.ClassificationRequest{
	ProductName:     "Teak dining table",
	ProductCategory: "Dining",
	PartnerName:     "Timber Traders",
	Amount:          decimal.RequireFromString("45000"),
	Description:     "6 seater",
	TransactionType: domain.TransactionPurchase,
}

func TestSuggest_SortsAndFilters(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"suggestions":[
			{"accountId":"cc-showroom","accountName":"Showroom","confidence":0.41},
			{"accountId":"cc-production","accountName":"Production","confidence":0.92},
			{"accountId":"","accountName":"Broken","confidence":0.99},
			{"accountId":"cc-odd","accountName":"Odd","confidence":1.7}
		]}`))
	}))
	defer srv.Close()

	c := classifier.NewHTTPClassifier(srv.URL, time.Second)
	suggestions, err := c.Suggest(context.Background(), sampleRequest)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, "cc-production", suggestions[0].AccountID)
	assert.Equal(t, "cc-showroom", suggestions[1].AccountID)

	assert.Equal(t, "Teak dining table", got["productName"])
	assert.Equal(t, "Timber Traders", got["partnerName"])
	assert.Equal(t, "PURCHASE", got["transactionType"])
}

func TestSuggest_Non200IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := classifier.NewHTTPClassifier(srv.URL, time.Second).Suggest(context.Background(), sampleRequest)
	assert.ErrorIs(t, err, apperrors.ErrClassifierUnavailable)
}

func TestSuggest_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := classifier.NewHTTPClassifier(srv.URL, 50*time.Millisecond).Suggest(context.Background(), sampleRequest)
	assert.ErrorIs(t, err, apperrors.ErrClassifierUnavailable)
}

func TestSuggest_MalformedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions": [`))
	}))
	defer srv.Close()

	_, err := classifier.NewHTTPClassifier(srv.URL, time.Second).Suggest(context.Background(), sampleRequest)
	assert.ErrorIs(t, err, apperrors.ErrClassifierUnavailable)
}

func TestSuggest_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions": []}`))
	}))
	defer srv.Close()

	suggestions, err := classifier.NewHTTPClassifier(srv.URL, time.Second).Suggest(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
