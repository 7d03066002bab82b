package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/ingest"
)

// FormFieldFiles is the multipart field carrying the PDFs.
const FormFieldFiles = "files"

// UploadPDFs runs the uploaded batch through the ingestion pipeline. Every
// outcome is reported as an envelope with HTTP 200.
func (h *Handler) UploadPDFs(c *gin.Context) {
	ctx := c.Request.Context()
	log := common.LoggerFromContext(ctx, h.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("http.upload.panic", "panic", r, "stack", string(debug.Stack()))
			c.JSON(http.StatusOK, ingest.Fail(ingest.StageUnexpected, ingest.MsgUnexpected, ""))
		}
	}()

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		defer func() { _ = form.RemoveAll() }()
		files = form.File[FormFieldFiles]
	case errors.Is(err, http.ErrNotMultipart):
		log.Warn("http.upload.not_multipart", "content_type", c.ContentType())
	default:
		log.Warn("http.upload.form_invalid", "error", err)
	}

	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, ingest.Upload{
			Filename: fh.Filename,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	c.JSON(http.StatusOK, h.ingest.Process(ctx, uploads))
}
