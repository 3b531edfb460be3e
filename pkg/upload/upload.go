package upload

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("upload: file not found")
	ErrTooLarge   = errors.New("upload: file too large")
	ErrBadType    = errors.New("upload: file type not allowed")
	ErrBadTempID  = errors.New("upload: malformed temp id")
	errNoFilePart = errors.New("upload: no file provided")
)

// Store stages uploaded files until they are claimed.
type Store interface {
	// Save stores the file and returns its temp id.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim hands the staged file over to the caller. The staged copy is
	// removed once the returned File is closed.
	Claim(ctx context.Context, tempID string) (*File, error)

	// Cleanup removes files staged longer than maxAge ago.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File is a claimed upload.
type File struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64

	// Path is set by DiskStore.
	Path string

	// URL is a presigned download URL, set by S3Store when available.
	URL string

	// Reader streams the contents.
	Reader io.ReadCloser
}

// Close releases the reader.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// NewTempID returns a fresh temp id.
func NewTempID() string {
	return uuid.NewString()
}

// ValidTempID reports whether id looks like a temp id, so it can be used
// in paths and object keys.
func ValidTempID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && !strings.ContainsAny(id, "/\\.")
}

// Config tunes Handler.
type Config struct {
	// MaxFileSize bounds the request body. Default: 10MB.
	MaxFileSize int64

	// AllowedTypes lists accepted sniffed MIME types. Empty allows all.
	AllowedTypes []string

	// AllowedExtensions lists accepted filename extensions such as ".png".
	// Empty allows all.
	AllowedExtensions []string

	// RequireExtensionMatch rejects files whose extension maps to a MIME
	// type other than the sniffed one.
	RequireExtensionMatch bool

	// FieldName is the multipart field. Default: "file".
	FieldName string

	Logger *slog.Logger
}

// DefaultConfig returns the defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 10 << 20,
		FieldName:   "file",
	}
}

// Result is the JSON body Handler answers with.
type Result struct {
	TempID      string `json:"temp_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Handler returns an upload handler with DefaultConfig.
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// HandlerWithConfig returns an upload handler.
func HandlerWithConfig(store Store, cfg *Config) http.Handler {
	cfg = cfg.normalize()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		res, err := Receive(w, r, store, cfg)
		if err != nil {
			status := StatusFor(err)
			if status == http.StatusInternalServerError {
				cfg.Logger.Error("upload failed", "error", err)
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			cfg.Logger.Warn("write upload response", "error", err)
		}
	})
}

func (c *Config) normalize() *Config {
	out := DefaultConfig()
	if c != nil {
		*out = *c
	}
	if out.MaxFileSize <= 0 {
		out.MaxFileSize = 10 << 20
	}
	if out.FieldName == "" {
		out.FieldName = "file"
	}
	if out.Logger == nil {
		out.Logger = slog.Default().With("component", "upload")
	}
	return out
}

// Receive parses a multipart upload request, validates the file and
// stages it in store.
func Receive(w http.ResponseWriter, r *http.Request, store Store, cfg *Config) (*Result, error) {
	cfg = cfg.normalize()
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFileSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return nil, ErrTooLarge
		}
		return nil, errNoFilePart
	}

	file, header, err := r.FormFile(cfg.FieldName)
	if err != nil {
		return nil, errNoFilePart
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	sniffed := http.DetectContentType(head)
	if err := checkType(cfg, header.Filename, sniffed); err != nil {
		return nil, err
	}

	name := filepath.Base(header.Filename)
	tempID, err := store.Save(r.Context(), name, sniffed, header.Size, br)
	if err != nil {
		return nil, err
	}
	return &Result{TempID: tempID, Filename: name, ContentType: sniffed, Size: header.Size}, nil
}

func checkType(cfg *Config, filename, sniffed string) error {
	base, _, _ := strings.Cut(sniffed, ";")
	base = strings.TrimSpace(base)
	ext := strings.ToLower(filepath.Ext(filename))

	if len(cfg.AllowedTypes) > 0 && !slices.Contains(cfg.AllowedTypes, base) {
		return ErrBadType
	}
	if len(cfg.AllowedExtensions) > 0 && !slices.ContainsFunc(cfg.AllowedExtensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	}) {
		return ErrBadType
	}
	if cfg.RequireExtensionMatch {
		byExt, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
		if byExt == "" || !strings.EqualFold(strings.TrimSpace(byExt), base) {
			return ErrBadType
		}
	}
	return nil
}

// StatusFor maps upload errors to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFilePart), errors.Is(err, ErrBadTempID):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RunCleanup calls store.Cleanup every interval until ctx ends.
func RunCleanup(ctx context.Context, store Store, interval, maxAge time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default().With("component", "upload")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx, maxAge); err != nil {
				logger.Warn("upload cleanup failed", "error", err)
			}
		}
	}
}
