package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vango-admin/pkg/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type recordingStore struct {
	tempID      string
	filename    string
	contentType string
	body        []byte
	err         error
}

func (s *recordingStore) Save(_ context.Context, filename, contentType string, _ int64, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.filename = filename
	s.contentType = contentType
	s.body, _ = io.ReadAll(r)
	if s.tempID == "" {
		return "temp123", nil
	}
	return s.tempID, nil
}

func (s *recordingStore) Claim(context.Context, string) (*upload.File, error) {
	return nil, errors.New("not implemented")
}

func (s *recordingStore) Cleanup(context.Context, time.Duration) error {
	return errors.New("not implemented")
}

func newMultipartUploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")

	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandler_RejectsNonPOST(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandler_FailsWhenNotMultipart(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_StoresSniffedTypeAndBaseName(t *testing.T) {
	store := &recordingStore{tempID: "abc"}
	h := upload.Handler(store)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "file", "../../avatar.png", pngHeader))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	var res upload.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TempID != "abc" {
		t.Fatalf("temp id = %q, want abc", res.TempID)
	}
	if store.filename != "avatar.png" {
		t.Fatalf("filename = %q, want avatar.png", store.filename)
	}
	if store.contentType != "image/png" {
		t.Fatalf("content type = %q, want image/png (client header must be ignored)", store.contentType)
	}
	if !bytes.Equal(store.body, pngHeader) {
		t.Fatalf("stored body = %q, want the full upload", store.body)
	}
}

func TestHandler_CustomFieldName(t *testing.T) {
	store := &recordingStore{}
	h := upload.HandlerWithConfig(store, &upload.Config{FieldName: "avatar"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "file", "a.png", pngHeader))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong field: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "avatar", "a.png", pngHeader))
	if rec.Code != http.StatusOK {
		t.Fatalf("right field: status = %d, want 200", rec.Code)
	}
}

func TestHandler_TypeChecks(t *testing.T) {
	tests := []struct {
		name     string
		cfg      upload.Config
		filename string
		content  []byte
		want     int
	}{
		{"allowed type", upload.Config{AllowedTypes: []string{"image/png"}}, "a.png", pngHeader, http.StatusOK},
		{"disallowed type", upload.Config{AllowedTypes: []string{"image/png"}}, "a.txt", []byte("hello"), http.StatusUnsupportedMediaType},
		{"allowed extension", upload.Config{AllowedExtensions: []string{".PNG"}}, "a.png", pngHeader, http.StatusOK},
		{"disallowed extension", upload.Config{AllowedExtensions: []string{".png"}}, "a.gif", pngHeader, http.StatusUnsupportedMediaType},
		{"extension matches", upload.Config{RequireExtensionMatch: true}, "a.png", pngHeader, http.StatusOK},
		{"extension mismatch", upload.Config{RequireExtensionMatch: true}, "a.jpg", pngHeader, http.StatusUnsupportedMediaType},
		{"no extension", upload.Config{RequireExtensionMatch: true}, "blob", pngHeader, http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := upload.HandlerWithConfig(&recordingStore{}, &cfg)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newMultipartUploadRequest(t, "file", tt.filename, tt.content))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_TooLarge(t *testing.T) {
	h := upload.HandlerWithConfig(&recordingStore{}, &upload.Config{MaxFileSize: 64})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newMultipartUploadRequest(t, "file", "big.bin", bytes.Repeat([]byte("x"), 4096)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandler_StoreErrors(t *testing.T) {
	store := &recordingStore{err: upload.ErrTooLarge}
	rec := httptest.NewRecorder()
	upload.Handler(store).ServeHTTP(rec, newMultipartUploadRequest(t, "file", "a.png", pngHeader))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}

	store.err = errors.New("disk full")
	rec = httptest.NewRecorder()
	upload.Handler(store).ServeHTTP(rec, newMultipartUploadRequest(t, "file", "a.png", pngHeader))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		upload.ErrTooLarge:  http.StatusRequestEntityTooLarge,
		upload.ErrBadType:   http.StatusUnsupportedMediaType,
		upload.ErrBadTempID: http.StatusBadRequest,
		upload.ErrNotFound:  http.StatusNotFound,
		io.ErrUnexpectedEOF: http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := upload.StatusFor(err); got != want {
			t.Errorf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
