package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
	"github.com/joseph-ayodele/licita-control/internal/middleware"
	"github.com/joseph-ayodele/licita-control/internal/repository"
)

const (
	MsgNotFound       = "Licitação não encontrada."
	MsgInvalidID      = "ID inválido."
	MsgInvalidRequest = "Requisição inválida."
	MsgExportFailed   = "Erro ao exportar as licitações."
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListLicitacoes returns rows newest first, filtered by the optional
// status, modalidade, limit and offset query parameters.
func (h *Handler) ListLicitacoes(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	rows, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if rows == nil {
		rows = []*entity.Licitacao{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(rows),
		"licitacoes": rows,
	})
}

func (h *Handler) GetLicitacao(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "licitacao": rec})
}

// UpdateStatus moves a licitação to another workflow status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": MsgInvalidRequest})
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	rec, err := h.repo.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.LoggerFromContext(c.Request.Context(), h.logger).Info("http.licitacao.status_updated", "id", id, "status", status)
	c.JSON(http.StatusOK, gin.H{"success": true, "licitacao": rec})
}

func (h *Handler) DeleteLicitacao(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportLicitacoes streams the filtered listing as an XLSX attachment.
func (h *Handler) ExportLicitacoes(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	b, err := h.exporter.ExportLicitacoesXLSX(c.Request.Context(), filter)
	if err != nil {
		common.LoggerFromContext(c.Request.Context(), h.logger).Error("http.export.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": MsgExportFailed})
		return
	}
	name := fmt.Sprintf("licitacoes-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, b)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": MsgInvalidID})
		return 0, false
	}
	return id, true
}

func parseListFilter(c *gin.Context) (repository.ListFilter, error) {
	statuses := make([]string, 0, len(constants.Statuses()))
	for _, s := range constants.Statuses() {
		statuses = append(statuses, string(s))
	}

	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	limit := strings.TrimSpace(c.Query("limit"))
	offset := strings.TrimSpace(c.Query("offset"))

	v := common.NewValidator().
		Field("status", status, common.OneOf(statuses...)).
		Field("limit", limit, common.PositiveInt(repository.MaxListLimit))
	off := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			v.Field("offset", offset, func(field string, value interface{}) *common.ValidationError {
				return &common.ValidationError{Field: field, Value: value, Message: "must be a non-negative integer"}
			})
		}
		off = n
	}
	if err := v.Error(); err != nil {
		return repository.ListFilter{}, err
	}

	f := repository.ListFilter{
		Status:     status,
		Modalidade: strings.TrimSpace(c.Query("modalidade")),
		Offset:     off,
	}
	if limit != "" {
		f.Limit, _ = strconv.Atoi(limit)
	}
	return f, nil
}

// writeError maps repository and validation errors onto HTTP statuses.
// Driver messages stay in the logs.
func (h *Handler) writeError(c *gin.Context, err error) {
	var appErr *common.AppError
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": MsgNotFound})
	case errors.Is(err, common.ErrValidation):
		body := gin.H{"success": false, "error": MsgInvalidRequest}
		if errors.As(err, &appErr) {
			body["details"] = appErr.Message
		}
		c.JSON(http.StatusBadRequest, body)
	default:
		common.LoggerFromContext(c.Request.Context(), h.logger).Error("http.request.failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": middleware.MsgInternal})
	}
}
