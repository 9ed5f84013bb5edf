package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
	"github.com/kidsinhalf/mayocat-shop/pkg/httputil"
	"github.com/kidsinhalf/mayocat-shop/pkg/pagination"
	"github.com/kidsinhalf/mayocat-shop/pkg/validator"
)

// Plain-text bodies clients match on.
const (
	msgSlugTaken      = "A product with this slug already exists\n"
	msgProductMissing = "No product with this slug could be found\n"
	msgInvalidMove    = "Invalid move operation"
	msgNoFiles        = "No file were found in the request"
)

const (
	filterUncategorized = "uncategorized"
	uploadFormField     = "files"
)

// CatalogService is the product logic the handlers depend on.
type CatalogService interface {
	FindAllProducts(ctx context.Context, limit, offset int) ([]domain.Product, error)
	FindUncategorizedProducts(ctx context.Context) ([]domain.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindCategoriesForProduct(ctx context.Context, product *domain.Product) ([]domain.Category, error)
	CreateProduct(ctx context.Context, input *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, input *domain.Product) (*domain.Product, error)
	MoveProduct(ctx context.Context, slug, anchor string, pos domain.InsertPosition) error
}

// AttachmentService is the attachment logic the handlers depend on.
type AttachmentService interface {
	StoreAttachment(ctx context.Context, r io.Reader, filename, title string, parent domain.EntityReference) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, parent domain.EntityReference) ([]domain.Attachment, error)
	FindAttachment(ctx context.Context, slug string) (*domain.Attachment, error)
	OpenAttachmentFile(ctx context.Context, a *domain.Attachment) (*storage.Object, error)
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	catalog        CatalogService
	attachments    AttachmentService
	basePath       string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProductHandler creates a new product HTTP handler. basePath is the
// prefix the routes are mounted under and is used to build redirects.
func NewProductHandler(
	catalog CatalogService,
	attachments AttachmentService,
	basePath string,
	maxUploadBytes int64,
	logger *slog.Logger,
) *ProductHandler {
	return &ProductHandler{
		catalog:        catalog,
		attachments:    attachments,
		basePath:       basePath,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// --- Request DTOs ---

// ProductRequest is the JSON body of create and update. It accepts a
// product representation as returned by GET, so href and categories are
// allowed but ignored.
type ProductRequest struct {
	Href        string         `json:"href"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	OnShelf     bool           `json:"onShelf"`
	Price       *int64         `json:"price"`
	Stock       *int           `json:"stock"`
	Metadata    map[string]any `json:"metadata"`
	Categories  any            `json:"categories"`
}

func (req *ProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		OnShelf:     req.OnShelf,
		Price:       req.Price,
		Stock:       req.Stock,
		Metadata:    req.Metadata,
	}
}

// --- Handlers ---

// ListProducts handles GET /product/. With filter=uncategorized the window
// parameters are ignored, malformed or not.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if r.URL.Query().Get("filter") == filterUncategorized {
		products, err = h.catalog.FindUncategorizedProducts(r.Context())
	} else {
		params, perr := pagination.FromRequest(r, pagination.DefaultNumber)
		if perr != nil {
			httputil.WriteBadParameter(w, r, perr.Error())
			return
		}
		products, err = h.catalog.FindAllProducts(r.Context(), params.Number, params.Offset)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NewProductRepresentations(products))
}

// GetProduct handles GET /product/{slug}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.FindProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if r.URL.Query().Get("expand") == "" {
		httputil.WriteJSON(w, http.StatusOK, NewProductRepresentation(product))
		return
	}

	categories, err := h.catalog.FindCategoriesForProduct(r.Context(), product)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewProductRepresentationWithCategories(product, categories))
}

// ListAttachments handles GET /product/{slug}/attachment
func (h *ProductHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.attachments.ListAttachments(r.Context(), productRef(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewAttachmentRepresentations(attachments))
}

// UploadAttachments handles POST /product/{slug}/attachment. Every part
// named "files" is stored in turn; the first failure stops processing and
// leaves earlier parts stored.
func (h *ProductHandler) UploadAttachments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		httputil.WriteText(w, http.StatusBadRequest, msgNoFiles)
		return
	}

	parent := productRef(r)
	stored := 0
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			switch {
			case isTooLarge(err):
				h.writeUploadError(w, r, err)
			case stored == 0:
				httputil.WriteText(w, http.StatusBadRequest, msgNoFiles)
			default:
				httputil.WriteError(w, r, apperrors.InvalidInput("malformed multipart body"), h.logger)
			}
			return
		}
		if part.FormName() != uploadFormField {
			_ = part.Close()
			continue
		}

		_, err = h.attachments.StoreAttachment(r.Context(), part, part.FileName(), "", parent)
		_ = part.Close()
		if err != nil {
			h.writeUploadError(w, r, err)
			return
		}
		stored++
	}

	if stored == 0 {
		httputil.WriteText(w, http.StatusBadRequest, msgNoFiles)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if isTooLarge(err) {
		httputil.WriteError(w, r, &apperrors.AppError{
			Code:    "PAYLOAD_TOO_LARGE",
			Message: "request body exceeds the upload limit",
			Status:  http.StatusRequestEntityTooLarge,
			Err:     err,
		}, h.logger)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}

// Move handles POST /product/{slug}/move. The "after" form field wins
// over "before" when both are given.
func (h *ProductHandler) Move(w http.ResponseWriter, r *http.Request) {
	anchor, pos := r.PostFormValue("before"), domain.InsertBefore
	if after := r.PostFormValue("after"); after != "" {
		anchor, pos = after, domain.InsertAfter
	}

	err := h.catalog.MoveProduct(r.Context(), chi.URLParam(r, "slug"), anchor, pos)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidMove) {
			httputil.WriteText(w, http.StatusBadRequest, msgInvalidMove)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProduct handles POST /product/{slug}. The slug in the path always
// wins over the one in the body.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	slug := chi.URLParam(r, "slug")
	if _, err := h.catalog.FindProductBySlug(r.Context(), slug); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := req.toDomain()
	input.Slug = slug
	if _, err := h.catalog.UpdateProduct(r.Context(), input); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			httputil.WriteValidationError(w, r, err)
		case errors.Is(err, apperrors.ErrNotFound):
			httputil.WriteText(w, http.StatusNotFound, msgProductMissing)
		default:
			httputil.WriteError(w, r, err, h.logger)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ReplaceProduct handles PUT /product/{slug}, which is reserved.
func (h *ProductHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.NotImplemented("replacing a product"), h.logger)
}

// CreateProduct handles POST /product/ and redirects to the new product.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			httputil.WriteValidationError(w, r, err)
		case errors.Is(err, apperrors.ErrAlreadyExists):
			httputil.WriteText(w, http.StatusConflict, msgSlugTaken)
		default:
			httputil.WriteError(w, r, err, h.logger)
		}
		return
	}

	location, err := url.Parse(h.basePath + productHref(product.Slug))
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}
	w.Header().Set("Location", location.String())
	w.WriteHeader(http.StatusSeeOther)
}

func productRef(r *http.Request) domain.EntityReference {
	return domain.EntityReference{Type: domain.EntityTypeProduct, Slug: chi.URLParam(r, "slug")}
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
