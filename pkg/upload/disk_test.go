package upload_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/vango-admin/pkg/upload"
)

func TestDiskStore_SaveClaimRemoves(t *testing.T) {
	ctx := context.Background()
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	id, err := store.Save(ctx, "report.csv", "text/csv", 5, strings.NewReader("a,b,c"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !upload.ValidTempID(id) {
		t.Fatalf("temp id %q is not a valid id", id)
	}
	pending, _ := store.Pending()
	if len(pending) != 1 || pending[0] != id {
		t.Fatalf("pending = %v, want [%s]", pending, id)
	}

	f, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if f.Filename != "report.csv" || f.ContentType != "text/csv" || f.Size != 5 {
		t.Fatalf("file = %+v", f)
	}
	data, err := io.ReadAll(f.Reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "a,b,c" {
		t.Fatalf("data = %q", data)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(f.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staged file still present after close: %v", err)
	}
	if _, err := store.Claim(ctx, id); !errors.Is(err, upload.ErrNotFound) {
		t.Fatalf("second claim err = %v, want ErrNotFound", err)
	}
}

func TestDiskStore_MaxSize(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := upload.NewDiskStore(dir, 4)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	if _, err := store.Save(ctx, "a", "", 10, strings.NewReader("0123456789")); !errors.Is(err, upload.ErrTooLarge) {
		t.Fatalf("declared size: err = %v, want ErrTooLarge", err)
	}
	// Size unknown up front; the limit is enforced while copying.
	if _, err := store.Save(ctx, "a", "", -1, strings.NewReader("0123456789")); !errors.Is(err, upload.ErrTooLarge) {
		t.Fatalf("streamed size: err = %v, want ErrTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("rejected uploads left %d files behind", len(entries))
	}
}

func TestDiskStore_ClaimRejectsBadIDs(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, id := range []string{"", "../etc/passwd", "not-a-uuid"} {
		if _, err := store.Claim(context.Background(), id); !errors.Is(err, upload.ErrBadTempID) {
			t.Errorf("Claim(%q) err = %v, want ErrBadTempID", id, err)
		}
	}
	if _, err := store.Claim(context.Background(), upload.NewTempID()); !errors.Is(err, upload.ErrNotFound) {
		t.Fatalf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestDiskStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	oldID, _ := store.Save(ctx, "old", "", 1, strings.NewReader("o"))
	newID, _ := store.Save(ctx, "new", "", 1, strings.NewReader("n"))

	past := time.Now().Add(-2 * time.Hour)
	for _, name := range []string{oldID, oldID + ".meta"} {
		if err := os.Chtimes(filepath.Join(dir, name), past, past); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	if err := store.Cleanup(ctx, time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	pending, _ := store.Pending()
	if len(pending) != 1 || pending[0] != newID {
		t.Fatalf("pending after cleanup = %v, want [%s]", pending, newID)
	}
}

func TestDiskStore_SaveHonorsContext(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, "a", "", 1, strings.NewReader("a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
