package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	apperrors "github.com/yashrajoria/capture-backend/services/common/errors"
	"go.uber.org/zap"
)

// ObjectStore is the durable blob store images are uploaded to.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// FileBlob is a new image staged for upload.
type FileBlob struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func BlobFromFileHeader(fh *multipart.FileHeader) FileBlob {
	return FileBlob{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Reconciler turns an edited image list into the final list of durable refs.
type Reconciler struct {
	store  ObjectStore
	logger *zap.Logger
}

func NewReconciler(store ObjectStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile keeps existing refs not in removed (in order), deletes the removed
// refs that were persisted, then uploads files one by one to namespace/<name>
// and appends their URLs. Delete failures are logged and ignored. The first
// upload failure aborts with ErrUploadFailure; objects already uploaded stay.
func (r *Reconciler) Reconcile(ctx context.Context, namespace string, existing, removed []string, files []FileBlob) ([]string, error) {
	removedSet := make(map[string]struct{}, len(removed))
	for _, ref := range removed {
		removedSet[ref] = struct{}{}
	}

	result := make([]string, 0, len(existing)+len(files))
	for _, ref := range existing {
		if _, gone := removedSet[ref]; gone {
			if err := r.store.Delete(ctx, ref); err != nil {
				r.logger.Warn("failed to delete removed image",
					zap.String("ref", ref),
					zap.Error(apperrors.Wrap(apperrors.ErrDeleteFailure, err)),
				)
			}
			continue
		}
		result = append(result, ref)
	}

	for _, f := range files {
		url, err := r.upload(ctx, namespace, f)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUploadFailure, err)
		}
		result = append(result, url)
	}
	return result, nil
}

func (r *Reconciler) upload(ctx context.Context, namespace string, f FileBlob) (string, error) {
	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer body.Close()

	key := namespace + "/" + path.Base(f.Name)
	url, err := r.store.Upload(ctx, key, f.ContentType, f.Size, body)
	if err != nil {
		return "", err
	}
	r.logger.Debug("uploaded image", zap.String("key", key))
	return url, nil
}
