package seed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/httpclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cbCfg := httpclient.DefaultCircuitBreakerConfig("seed-" + t.Name())
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), cbCfg, discardLogger())
	return NewAPIClient(doer, srv.URL+"/api/1.0/", "acme", "token-1")
}

func TestAPIClient_CreateProduct(t *testing.T) {
	var got map[string]any
	api := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/1.0/product", r.URL.Path)
		assert.Equal(t, "acme", r.Header.Get("X-Tenant"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Location", "/api/1.0/product/stoneware-mug")
		w.WriteHeader(http.StatusSeeOther)
	}))

	location, err := api.CreateProduct(context.Background(), DefaultProducts[0])
	require.NoError(t, err)

	assert.Equal(t, "/api/1.0/product/stoneware-mug", location)
	assert.Equal(t, "stoneware-mug", got["slug"])
	assert.Equal(t, "Stoneware Mug", got["title"])
	assert.Equal(t, true, got["onShelf"])
	assert.Equal(t, float64(2400), got["price"])
	assert.Equal(t, float64(40), got["stock"])
}

func TestAPIClient_CreateProductWithoutPriceOmitsStock(t *testing.T) {
	var got map[string]any
	api := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Location", "/api/1.0/product/gift-card")
		w.WriteHeader(http.StatusSeeOther)
	}))

	_, err := api.CreateProduct(context.Background(), Product{Slug: "gift-card", Title: "Gift Card"})
	require.NoError(t, err)
	assert.NotContains(t, got, "price")
	assert.NotContains(t, got, "stock")
}

func TestAPIClient_CreateProductConflict(t *testing.T) {
	api := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "A product with this slug already exists", http.StatusConflict)
	}))

	_, err := api.CreateProduct(context.Background(), DefaultProducts[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestAPIClient_UploadAttachment(t *testing.T) {
	api := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1.0/product/stoneware-mug/attachment", r.URL.Path)

		mr, err := r.MultipartReader()
		require.NoError(t, err)
		part, err := mr.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "files", part.FormName())
		assert.Equal(t, "stoneware-mug.txt", part.FileName())
		body, _ := io.ReadAll(part)
		assert.Equal(t, "sheet", string(body))

		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, api.UploadAttachment(context.Background(), "stoneware-mug", "stoneware-mug.txt", []byte("sheet")))
}

func TestAPIClient_UploadAttachmentRejected(t *testing.T) {
	api := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "No file were found in the request", http.StatusBadRequest)
	}))

	err := api.UploadAttachment(context.Background(), "stoneware-mug", "x.txt", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "No file were found in the request")
}
