package handlers

import (
	"fmt"
	"net/http"

	"legal_diary/models"
	"legal_diary/services"

	"github.com/labstack/echo/v4"
)

// UploadDocument stores the multipart "file" field against a case
func (h *Handler) UploadDocument(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, services.MaxUploadSize+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
	}
	defer src.Close()

	doc, err := h.Documents.Upload(c.Request().Context(), scope, c.Param("id"), services.DocumentUpload{
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Size:        file.Size,
		Body:        src,
	})
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityCreate, services.ResourceDocument, doc.ID, doc.FileOriginalName, "Uploaded document")
	return c.JSON(http.StatusCreated, doc)
}

// ListDocuments lists a case's documents
func (h *Handler) ListDocuments(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	docs, err := h.Documents.List(c.Request().Context(), scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, docs)
}

// DownloadDocument streams a document back as an attachment
func (h *Handler) DownloadDocument(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	doc, body, err := h.Documents.Open(c.Request().Context(), scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileOriginalName))
	if doc.FileSize > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprint(doc.FileSize))
	}
	return c.Stream(http.StatusOK, contentType, body)
}

// DeleteDocument removes a document and its stored bytes
func (h *Handler) DeleteDocument(c echo.Context) error {
	scope, err := currentScope(c)
	if err != nil {
		return err
	}
	doc, err := h.Documents.Delete(c.Request().Context(), scope, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	h.logActivity(c, models.ActivityDelete, services.ResourceDocument, doc.ID, doc.FileOriginalName, "Deleted document")
	return c.NoContent(http.StatusNoContent)
}
