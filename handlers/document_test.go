package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"legal_diary/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) upload(token, caseID, fileName string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(env.t, err)
	_, err = part.Write(content)
	require.NoError(env.t, err)
	require.NoError(env.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cases/"+caseID+"/documents", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func TestCaseDocuments(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(env.admin)
	advocateToken := env.token(env.advocate)
	c := env.createCase(adminToken, "OS 12/2026")

	content := []byte("%PDF-1.4 vakalatnama")
	rec := env.upload(adminToken, c.ID, "vakalatnama.pdf", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc models.Document
	decode(t, rec, &doc)
	assert.Equal(t, "vakalatnama.pdf", doc.FileOriginalName)
	assert.Equal(t, int64(len(content)), doc.FileSize)
	assert.Equal(t, c.ID, doc.CaseID)

	t.Run("Rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.upload(adminToken, c.ID, "payload.exe", []byte("MZ")).Code)
		assert.Equal(t, http.StatusBadRequest, env.upload(adminToken, c.ID, "empty.pdf", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.upload(advocateToken, c.ID, "brief.pdf", content).Code)

		rec := env.do(http.MethodPost, "/api/cases/"+c.ID+"/documents", adminToken, map[string]string{"file": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = env.do(http.MethodGet, "/api/cases/"+c.ID+"/documents", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []models.Document
	decode(t, rec, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)

	rec = env.do(http.MethodGet, "/api/documents/"+doc.ID+"/download", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, `attachment; filename="vakalatnama.pdf"`, rec.Header().Get(echo.HeaderContentDisposition))

	// Documents follow case visibility
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/documents/"+doc.ID+"/download", advocateToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/documents/"+doc.ID, advocateToken, nil).Code)

	require.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/documents/"+doc.ID, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/documents/"+doc.ID+"/download", adminToken, nil).Code)

	rec = env.do(http.MethodGet, "/api/cases/"+c.ID+"/documents", adminToken, nil)
	decode(t, rec, &docs)
	assert.Empty(t, docs)
}

func TestCaseSummaryUnavailable(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.admin)
	c := env.createCase(token, "OS 12/2026")

	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodPost, "/api/cases/"+c.ID+"/ai-summary", token, nil).Code)

	// Reading a missing summary is a 404 even without a provider
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/cases/"+c.ID+"/ai-summary", token, nil).Code)

	env.handler.AI = nil
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/cases/"+c.ID+"/ai-summary", token, nil).Code)
}

func TestListActivity(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.admin)
	env.createCase(token, "OS 12/2026")
	env.createCase(token, "OS 13/2026")

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/activity", env.token(env.advocate), nil).Code)

	rec := env.do(http.MethodGet, "/api/activity?page=1&page_size=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items    []models.ActivityLog `json:"items"`
		Total    int64                `json:"total"`
		Page     int                  `json:"page"`
		PageSize int                  `json:"page_size"`
	}
	decode(t, rec, &page)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.ActivityCreate, page.Items[0].Action)
}
