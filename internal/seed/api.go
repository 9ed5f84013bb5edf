package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/kidsinhalf/mayocat-shop/pkg/httpclient"
)

// Doer sends a request. *httpclient.CircuitBreakerClient implements it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// APIClient writes products through the catalog HTTP API as an admin of
// one tenant.
type APIClient struct {
	http    Doer
	baseURL string
	tenant  string
	token   string
}

// NewAPIClient creates a client for the API mounted at baseURL, for
// example "http://localhost:8001/api/1.0".
func NewAPIClient(doer Doer, baseURL, tenant, token string) *APIClient {
	return &APIClient{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		tenant:  tenant,
		token:   token,
	}
}

type productBody struct {
	Slug        string `json:"slug,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	OnShelf     bool   `json:"onShelf"`
	Price       *int64 `json:"price,omitempty"`
	Stock       *int   `json:"stock,omitempty"`
}

// CreateProduct creates p and returns the Location of the new product.
// A taken slug comes back as an error wrapping apperrors.ErrAlreadyExists.
func (c *APIClient) CreateProduct(ctx context.Context, p Product) (string, error) {
	body := productBody{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		OnShelf:     p.OnShelf,
	}
	if p.Price > 0 {
		body.Price = &p.Price
		body.Stock = &p.Stock
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal product: %w", err)
	}

	req, err := c.newRequest(http.MethodPost, "/product", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create product %q: %w", p.Title, err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		return "", fmt.Errorf("create product %q: %w", p.Title, httpclient.ParseResponseError(resp))
	}
	_ = resp.Body.Close()

	return resp.Header.Get("Location"), nil
}

// UploadAttachment attaches one file named filename to the product.
func (c *APIClient) UploadAttachment(ctx context.Context, productSlug, filename string, content []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(http.MethodPost, "/product/"+url.PathEscape(productSlug)+"/attachment", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("upload %s to %q: %w", filename, productSlug, err)
	}
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload %s to %q: %w", filename, productSlug, httpclient.ParseResponseError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (c *APIClient) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant", c.tenant)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
