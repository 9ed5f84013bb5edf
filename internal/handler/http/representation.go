package http

import (
	"github.com/kidsinhalf/mayocat-shop/internal/domain"
)

// EntityReferenceRepresentation is a lightweight link to another resource.
type EntityReferenceRepresentation struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// ProductRepresentation is the wire shape of a product. Categories is
// present only when the caller asked for it, and may then be empty.
type ProductRepresentation struct {
	Href        string                           `json:"href"`
	Slug        string                           `json:"slug"`
	Title       string                           `json:"title"`
	Description string                           `json:"description"`
	OnShelf     bool                             `json:"onShelf"`
	Price       *int64                           `json:"price,omitempty"`
	Stock       *int                             `json:"stock,omitempty"`
	Metadata    map[string]any                   `json:"metadata,omitempty"`
	Categories  *[]EntityReferenceRepresentation `json:"categories,omitempty"`
}

// FileRepresentation describes the downloadable file of an attachment.
type FileRepresentation struct {
	Extension string `json:"extension"`
	Href      string `json:"href"`
}

// AttachmentRepresentation is the wire shape of an attachment.
type AttachmentRepresentation struct {
	Href  string             `json:"href"`
	Title string             `json:"title"`
	File  FileRepresentation `json:"file"`
}

func productHref(slug string) string { return "/product/" + slug }

func categoryHref(slug string) string { return "/category/" + slug }

func attachmentHref(slug string) string { return "/attachment/" + slug }

// NewProductRepresentation maps a product without its categories.
func NewProductRepresentation(p *domain.Product) ProductRepresentation {
	return ProductRepresentation{
		Href:        productHref(p.Slug),
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		OnShelf:     p.OnShelf,
		Price:       p.Price,
		Stock:       p.Stock,
		Metadata:    p.Metadata,
	}
}

// NewProductRepresentationWithCategories maps a product and embeds a
// reference to each of its categories.
func NewProductRepresentationWithCategories(p *domain.Product, categories []domain.Category) ProductRepresentation {
	rep := NewProductRepresentation(p)
	refs := make([]EntityReferenceRepresentation, 0, len(categories))
	for _, c := range categories {
		refs = append(refs, EntityReferenceRepresentation{Href: categoryHref(c.Slug), Title: c.Title})
	}
	rep.Categories = &refs
	return rep
}

// NewProductRepresentations maps products element-wise, keeping their order.
func NewProductRepresentations(products []domain.Product) []ProductRepresentation {
	out := make([]ProductRepresentation, 0, len(products))
	for i := range products {
		out = append(out, NewProductRepresentation(&products[i]))
	}
	return out
}

// NewAttachmentRepresentation maps an attachment.
func NewAttachmentRepresentation(a *domain.Attachment) AttachmentRepresentation {
	return AttachmentRepresentation{
		Href:  attachmentHref(a.Slug),
		Title: a.Title,
		File: FileRepresentation{
			Extension: a.Extension,
			Href:      attachmentHref(a.FileName()),
		},
	}
}

// NewAttachmentRepresentations maps attachments element-wise, keeping their order.
func NewAttachmentRepresentations(attachments []domain.Attachment) []AttachmentRepresentation {
	out := make([]AttachmentRepresentation, 0, len(attachments))
	for i := range attachments {
		out = append(out, NewAttachmentRepresentation(&attachments[i]))
	}
	return out
}
