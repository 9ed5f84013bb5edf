package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Entity types that can own attachments.
const (
	EntityTypeProduct  = "product"
	EntityTypeCategory = "category"
)

// EntityReference identifies an entity by type and slug, optionally nested
// under a parent reference.
type EntityReference struct {
	Type   string           `json:"type"`
	Slug   string           `json:"slug"`
	Parent *EntityReference `json:"parent,omitempty"`
}

// String renders the reference as a path, e.g. "product/blue-mug".
func (r EntityReference) String() string {
	own := r.Type + "/" + r.Slug
	if r.Parent == nil {
		return own
	}
	return r.Parent.String() + "/" + own
}

// ParseEntityReference is the inverse of EntityReference.String.
func ParseEntityReference(s string) (EntityReference, error) {
	parts := strings.Split(s, "/")
	if len(parts)%2 != 0 {
		return EntityReference{}, fmt.Errorf("invalid entity reference %q", s)
	}

	var ref *EntityReference
	for i := 0; i < len(parts); i += 2 {
		if parts[i] == "" || parts[i+1] == "" {
			return EntityReference{}, fmt.Errorf("invalid entity reference %q", s)
		}
		ref = &EntityReference{Type: parts[i], Slug: parts[i+1], Parent: ref}
	}
	return *ref, nil
}

// Attachment is a stored file belonging to an entity.
type Attachment struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"-"`
	Slug        string          `json:"slug"`
	Extension   string          `json:"extension"`
	Title       string          `json:"title"`
	ContentType string          `json:"contentType"`
	Size        int64           `json:"size"`
	StorageKey  string          `json:"-"`
	Parent      EntityReference `json:"parent"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FileName is the public file name, "{slug}.{extension}".
func (a *Attachment) FileName() string {
	return a.Slug + "." + a.Extension
}

// SplitFileName splits an uploaded file name into its base name and its
// lower-cased extension without the dot. Directory components are dropped.
func SplitFileName(filename string) (base, ext string) {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" {
		return "", ""
	}
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return name, ""
	}
	return name[:dot], strings.ToLower(name[dot+1:])
}
