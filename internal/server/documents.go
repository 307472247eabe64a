// internal/server/documents.go
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "account-opening/internal/common/errors"
	"account-opening/internal/documents"
	"account-opening/internal/models"
)

// maxUploadBytes caps document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

func (s *Server) handleUploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		s.respondError(c, apperrors.NewInvalidRequest(
			apperrors.ErrCodeValidationFailed, "Missing or oversized file upload", err.Error()))
		return
	}
	defer file.Close()

	req := documents.UploadRequest{
		Type:     models.DocumentType(c.PostForm("type")),
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Content:  file,
	}
	if signerID := c.PostForm("signerId"); signerID != "" {
		req.SignerID = &signerID
	}

	doc, err := s.services.Documents.Upload(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.services.Documents.List(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.services.Documents.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// handleDownloadDocument redirects to a short-lived signed URL rather than
// streaming the file through the API process.
func (s *Server) handleDownloadDocument(c *gin.Context) {
	url, err := s.services.Documents.DownloadURL(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.services.Documents.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleFileDownload serves a stored file when the signed-URL triple checks
// out. This is the redirect target for document downloads.
func (s *Server) handleFileDownload(c *gin.Context) {
	name := c.Param("name")
	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if err != nil || !s.services.Files.VerifySignature(name, expires, c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": gin.H{"code": "INVALID_DOWNLOAD_SIGNATURE", "message": "Download link is invalid or expired"},
		})
		return
	}
	c.File(s.services.Files.Resolve(name))
}
