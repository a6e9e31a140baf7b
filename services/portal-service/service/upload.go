package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/logger"
	"grievance-portal/services/portal-service/models"

	"github.com/google/uuid"
)

const (
	MaxUploadSize  = 5 << 20
	MaxAttachments = 5
)

// Upload is a file received from a client, opened lazily so callers can
// validate every file before any is stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func (u Upload) mediaKind() string {
	ct := strings.ToLower(u.ContentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "image"
	case strings.HasPrefix(ct, "video/"):
		return "video"
	default:
		return ""
	}
}

func validateMedia(u Upload, allowVideo bool) error {
	kind := u.mediaKind()
	if kind == "" || (kind == "video" && !allowVideo) {
		if allowVideo {
			return apperror.Validation("Only images and videos are allowed: " + u.Filename)
		}
		return apperror.Validation("Only images are allowed")
	}
	if u.Size > MaxUploadSize {
		return apperror.Validation(fmt.Sprintf("File %s exceeds the 5 MB limit", u.Filename))
	}
	return nil
}

func (d Deps) store(ctx context.Context, key string, u Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", apperror.Internal("Failed to read uploaded file", err)
	}
	defer rc.Close()

	url, err := d.Objects.Put(ctx, key, rc, u.Size, u.ContentType)
	if err != nil {
		return "", apperror.Internal("Failed to upload file", err)
	}
	return url, nil
}

// storeAttachments uploads every file under prefix and returns the stored
// keys alongside the attachments. On failure the files already stored are
// removed.
func (d Deps) storeAttachments(ctx context.Context, prefix string, files []Upload) ([]models.Attachment, []string, error) {
	attachments := make([]models.Attachment, 0, len(files))
	var keys []string
	for _, f := range files {
		key := prefix + uuid.New().String() + strings.ToLower(filepath.Ext(f.Filename))
		url, err := d.store(ctx, key, f)
		if err != nil {
			d.removeObjects(ctx, keys)
			return nil, nil, err
		}
		keys = append(keys, key)
		attachments = append(attachments, models.Attachment{URL: url, FileType: f.mediaKind()})
	}
	return attachments, keys, nil
}

func (d Deps) removeObjects(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := d.Objects.Delete(ctx, k); err != nil {
			logger.Warn(ctx, "Failed to remove orphaned upload "+k, err)
		}
	}
}
