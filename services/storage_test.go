package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "firms/f1/cases/c1/order.pdf", strings.NewReader("%PDF-1.4"), "application/pdf", 8))
	_, err := os.Stat(filepath.Join(dir, "firms", "f1", "cases", "c1", "order.pdf"))
	require.NoError(t, err)

	body, contentType, err := store.Get(ctx, "firms/f1/cases/c1/order.pdf")
	require.NoError(t, err)
	got, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "%PDF-1.4", string(got))
	assert.Equal(t, "application/pdf", contentType)

	require.NoError(t, store.Delete(ctx, "firms/f1/cases/c1/order.pdf"))
	_, _, err = store.Get(ctx, "firms/f1/cases/c1/order.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, "firms/f1/cases/c1/order.pdf"))

	t.Run("Keys cannot escape the base directory", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain", 1))
		_, err := os.Stat(filepath.Join(dir, "escape.txt"))
		assert.NoError(t, err)

		assert.ErrorIs(t, store.Put(ctx, "", strings.NewReader("x"), "text/plain", 1), ErrValidation)
	})
}

func TestCaseDocumentKey(t *testing.T) {
	a := CaseDocumentKey("f1", "c1", "Vakalatnama.PDF")
	b := CaseDocumentKey("f1", "c1", "Vakalatnama.PDF")
	assert.True(t, strings.HasPrefix(a, "firms/f1/cases/c1/"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, b)
}

func TestR2Store(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	store, err := newS3Store(ctx, server.URL, "key", "secret", "diary")
	require.NoError(t, err)
	assert.Equal(t, "r2", store.Name())

	require.NoError(t, store.Put(ctx, "firms/f1/doc.pdf", strings.NewReader("%PDF-1.4"), "application/pdf", 8))

	body, contentType, err := store.Get(ctx, "firms/f1/doc.pdf")
	require.NoError(t, err)
	got, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "%PDF-1.4", string(got))
	assert.Equal(t, "application/pdf", contentType)

	require.NoError(t, store.Delete(ctx, "firms/f1/doc.pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /diary/firms/f1/doc.pdf",
		"GET /diary/firms/f1/doc.pdf",
		"DELETE /diary/firms/f1/doc.pdf",
	}, requests)
}
