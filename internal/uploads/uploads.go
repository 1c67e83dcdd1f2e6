// Package uploads manages the write-only directory that backs
// POST /analyze and the GET /analyze?url= download path, the split
// kept deliberately narrow: this package only ever creates files, it
// never reads them back for serving.
package uploads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/visionmux/internal/apperrors"
	"github.com/menta2k/visionmux/internal/utils"
)

// allowedMIME is the upload content-type allow-list; anything else is a
// validation error before a single byte reaches disk.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Manager owns one upload directory.
type Manager struct {
	dir         string
	maxFileSize int64
}

// New builds a Manager, creating dir if it doesn't already exist.
func New(dir string, maxFileSize int64) (*Manager, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Manager{dir: dir, maxFileSize: maxFileSize}, nil
}

// SaveMultipart validates and persists a multipart file field, returning
// the local path it was written to.
func (m *Manager) SaveMultipart(header *multipart.FileHeader) (string, error) {
	if header.Size > m.maxFileSize {
		return "", apperrors.NewValidationError("uploaded file exceeds the size limit",
			fmt.Sprintf("%d bytes exceeds limit of %d bytes", header.Size, m.maxFileSize))
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedMIME[contentType] {
		return "", apperrors.NewValidationError("unsupported image content type", contentType)
	}

	src, err := header.Open()
	if err != nil {
		return "", apperrors.NewValidationError("failed to open uploaded file", err.Error())
	}
	defer src.Close()

	dstPath := m.destPath(header.Filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", apperrors.NewInternalError("failed to create destination file", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, m.maxFileSize+1)); err != nil {
		return "", apperrors.NewInternalError("failed to write uploaded file", err)
	}
	return dstPath, nil
}

// DownloadToFile fetches imageURL and writes it to a new file in the
// upload directory, enforcing the same size cap and MIME allow-list as
// a direct multipart upload.
func (m *Manager) DownloadToFile(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", apperrors.NewValidationError("invalid image URL", err.Error())
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("failed to download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewNetworkError(fmt.Sprintf("image download returned status %d", resp.StatusCode), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !allowedMIME[contentType] {
		return "", apperrors.NewValidationError("unsupported image content type", contentType)
	}

	dstPath := m.destPath(filepath.Base(imageURL))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", apperrors.NewInternalError("failed to create destination file", err)
	}
	defer dst.Close()

	limited := io.LimitReader(resp.Body, m.maxFileSize+1)
	written, err := io.Copy(dst, limited)
	if err != nil {
		return "", apperrors.NewInternalError("failed to write downloaded image", err)
	}
	if written > m.maxFileSize {
		os.Remove(dstPath)
		return "", apperrors.NewValidationError("downloaded image exceeds the size limit", "")
	}

	return dstPath, nil
}

// destPath generates a collision-free path in the upload directory,
// preserving the original extension when it looks like an image.
func (m *Manager) destPath(originalName string) string {
	ext := utils.GetFileExtension(originalName)
	if !utils.IsImageFile(originalName) || ext == "" {
		ext = "jpg"
	}
	name := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	return filepath.Join(m.dir, utils.SanitizeFilename(name))
}
