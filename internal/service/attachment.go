package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/kidsinhalf/mayocat-shop/internal/domain"
	"github.com/kidsinhalf/mayocat-shop/internal/event"
	"github.com/kidsinhalf/mayocat-shop/internal/repository"
	"github.com/kidsinhalf/mayocat-shop/internal/storage"
	apperrors "github.com/kidsinhalf/mayocat-shop/pkg/errors"
)

// maxSlugAttempts bounds the "-2", "-3", ... suffixes tried for a taken slug.
const maxSlugAttempts = 100

const defaultAttachmentSlug = "attachment"

// AttachmentService stores attachment files and their metadata.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	storage     storage.Storage
	producer    *event.Producer
	logger      *slog.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	store storage.Storage,
	producer *event.Producer,
	logger *slog.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		storage:     store,
		producer:    producer,
		logger:      logger,
	}
}

// StoreAttachment reads r once into blob storage and records an attachment
// owned by parent. The slug is derived from filename and suffixed when
// already taken in the tenant.
func (s *AttachmentService) StoreAttachment(
	ctx context.Context,
	r io.Reader,
	filename, title string,
	parent domain.EntityReference,
) (*domain.Attachment, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	base, ext := domain.SplitFileName(filename)
	slugBase := generateSlug(base)
	if slugBase == "" {
		slugBase = defaultAttachmentSlug
	}

	var head bytes.Buffer
	mtype, err := mimetype.DetectReader(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}

	id := uuid.New().String()
	key := tenant.Slug + "/attachments/" + id

	uploaded, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: mtype.String(),
		Data:        io.MultiReader(&head, r),
	})
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	attachment := &domain.Attachment{
		ID:          id,
		TenantID:    tenant.ID,
		Extension:   ext,
		Title:       title,
		ContentType: mtype.String(),
		Size:        uploaded.Size,
		StorageKey:  key,
		Parent:      parent,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.insertWithFreeSlug(ctx, attachment, slugBase); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove orphaned attachment blob",
				slog.String("key", key),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("create attachment: %w", err)
	}

	if err := s.producer.PublishAttachmentUploaded(ctx, attachment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish attachment.uploaded event",
			slog.String("attachment_id", attachment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "attachment stored",
		slog.String("attachment_id", attachment.ID),
		slog.String("slug", attachment.Slug),
		slog.String("parent", parent.String()),
		slog.String("content_type", attachment.ContentType),
		slog.Int64("size", attachment.Size),
	)

	return attachment, nil
}

// insertWithFreeSlug tries base, base-2, base-3, ... until the row is accepted.
func (s *AttachmentService) insertWithFreeSlug(ctx context.Context, a *domain.Attachment, base string) error {
	var err error
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		a.Slug = slugCandidate(base, attempt)
		err = s.attachments.Create(ctx, a)
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return err
		}
	}
	return err
}

func slugCandidate(base string, attempt int) string {
	if attempt == 1 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}

// ListAttachments returns the attachments of parent in creation order.
func (s *AttachmentService) ListAttachments(ctx context.Context, parent domain.EntityReference) ([]domain.Attachment, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListByParent(ctx, tenant.ID, parent)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// FindAttachment retrieves an attachment by its slug.
func (s *AttachmentService) FindAttachment(ctx context.Context, slug string) (*domain.Attachment, error) {
	tenant, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}

	attachment, err := s.attachments.GetBySlug(ctx, tenant.ID, slug)
	if err != nil {
		return nil, fmt.Errorf("get attachment by slug: %w", err)
	}
	return attachment, nil
}

// OpenAttachmentFile opens the stored file of a. The caller closes the body.
func (s *AttachmentService) OpenAttachmentFile(ctx context.Context, a *domain.Attachment) (*storage.Object, error) {
	obj, err := s.storage.Open(ctx, a.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open attachment file: %w", err)
	}
	if obj.ContentType == "" {
		obj.ContentType = a.ContentType
	}
	return obj, nil
}
