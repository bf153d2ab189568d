package webserver

import (
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clubwize/backend/src/api/storage"
)

const (
	maxFileSize   = 10 << 20 // attachments
	maxImageSize  = 5 << 20  // bannerImage, logo
	maxFilesPerRq = 5
)

var allowedMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

func validateUpload(fh *multipart.FileHeader, limit int64) error {
	if fh.Size > limit {
		return fmt.Errorf("%s exceeds the %d byte limit", fh.Filename, limit)
	}
	ct := fh.Header.Get("Content-Type")
	if !allowedMime[ct] {
		return fmt.Errorf("%s has unsupported type %s", fh.Filename, ct)
	}
	return nil
}

// uploadImage validates and stores a single branding image.
func uploadImage(c *gin.Context, store storage.Service, prefix string, fh *multipart.FileHeader) (storage.Object, error) {
	if err := validateUpload(fh, maxImageSize); err != nil {
		return storage.Object{}, err
	}
	if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return storage.Object{}, fmt.Errorf("%s is not an image", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return storage.Object{}, err
	}
	defer f.Close()

	key := prefix + "/" + uuid.NewString() + path.Ext(fh.Filename)
	return store.Upload(c.Request.Context(), key, fh.Header.Get("Content-Type"), f, fh.Size)
}

// uploadBatch validates and stores the request's files as one parallel batch.
// Any single failure fails the whole batch, and the enclosing operation with
// it.
func uploadBatch(c *gin.Context, store storage.Service, prefix string, files []*multipart.FileHeader) ([]storage.Object, error) {
	if len(files) > maxFilesPerRq {
		return nil, fmt.Errorf("at most %d files per request", maxFilesPerRq)
	}
	for _, fh := range files {
		if err := validateUpload(fh, maxFileSize); err != nil {
			return nil, err
		}
	}

	objects := make([]storage.Object, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	for i, fh := range files {
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()

			key := prefix + "/" + uuid.NewString() + path.Ext(fh.Filename)
			obj, err := store.Upload(ctx, key, fh.Header.Get("Content-Type"), f, fh.Size)
			if err != nil {
				return err
			}
			objects[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return objects, nil
}
