package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/media"
)

const maxUploadMemory = 32 << 20 // bytes held in memory before spilling to disk

// stageFormFile copies a multipart file part into the staging directory under
// a unique name and returns its local path. found is false when the part is
// absent, which is not an error by itself.
func stageFormFile(r *http.Request, field, dir string) (path string, found bool, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", false, nil
		}
		return "", false, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("invalid %s file part", field), err)
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, err
	}

	staged := filepath.Join(dir, uuid.New().String()+filepath.Ext(header.Filename))
	dst, err := os.Create(staged)
	if err != nil {
		return "", false, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(staged)
		return "", false, err
	}
	return staged, true, nil
}

// stageAndUpload stages a file part and pushes it to hosted storage,
// returning the public URL. Missing parts return ("", nil) so callers decide
// whether the part was required.
func stageAndUpload(ctx context.Context, r *http.Request, field, dir string, uploader media.Uploader) (string, error) {
	staged, found, err := stageFormFile(r, field, dir)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return uploader.Upload(ctx, staged)
}
