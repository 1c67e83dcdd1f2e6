package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/menta2k/visionmux/internal/apperrors"
)

func multipartFileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {"form-data; name=\"image\"; filename=\"" + filename + "\""},
		"Content-Type":        {contentType},
	})
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("failed to write multipart body: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	r := multipart.NewReader(&buf, w.Boundary())
	form, err := r.ReadForm(int64(len(body)) + 1024)
	if err != nil {
		t.Fatalf("failed to read multipart form: %v", err)
	}
	return form.File["image"][0]
}

func TestSaveMultipartWritesAllowedImage(t *testing.T) {
	m, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	header := multipartFileHeader(t, "cat.jpg", "image/jpeg", []byte("fake-jpeg-bytes"))
	path, err := m.SaveMultipart(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file to exist at %s: %v", path, err)
	}
	if string(data) != "fake-jpeg-bytes" {
		t.Fatalf("unexpected file contents: %q", data)
	}
}

func TestSaveMultipartRejectsDisallowedMIME(t *testing.T) {
	m, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	header := multipartFileHeader(t, "doc.pdf", "application/pdf", []byte("not an image"))
	_, err = m.SaveMultipart(header)
	if err == nil {
		t.Fatalf("expected an error for a disallowed MIME type")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.TypeValidation {
		t.Fatalf("expected a validation AppError, got %v", err)
	}
}

func TestSaveMultipartRejectsOverSizeUpload(t *testing.T) {
	m, err := New(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	header := multipartFileHeader(t, "cat.jpg", "image/jpeg", []byte("way too big for the limit"))
	_, err = m.SaveMultipart(header)
	if err == nil {
		t.Fatalf("expected an error for an over-size upload")
	}
}

func TestDownloadToFileWritesBodyAndEnforcesMIME(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		io.Copy(w, bytes.NewReader([]byte("fake-png-bytes")))
	}))
	defer srv.Close()

	m, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := m.DownloadToFile(context.Background(), srv.URL+"/image.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected downloaded file to exist: %v", err)
	}
	if string(data) != "fake-png-bytes" {
		t.Fatalf("unexpected downloaded contents: %q", data)
	}
}

func TestDownloadToFileRejectsDisallowedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	m, err := New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = m.DownloadToFile(context.Background(), srv.URL+"/page.html")
	if err == nil {
		t.Fatalf("expected an error for a non-image content type")
	}
}

func TestDownloadToFileRemovesPartialFileOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		io.Copy(w, bytes.NewReader([]byte("this body is definitely over the tiny limit")))
	}))
	defer srv.Close()

	dir := t.TempDir()
	m, err := New(dir, 8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = m.DownloadToFile(context.Background(), srv.URL+"/image.jpg")
	if err == nil {
		t.Fatalf("expected an error for an over-size download")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected the partial file to be removed, found %d entries", len(entries))
	}
}
