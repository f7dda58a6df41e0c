package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	formRequest "github.com/LavaJover/shvark-exchange-form/internal/delivery/http/dto/form/request"
	formResponse "github.com/LavaJover/shvark-exchange-form/internal/delivery/http/dto/form/response"
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/LavaJover/shvark-exchange-form/internal/usecase/form"
	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// FormController is the part of form.Form the HTTP surface drives.
type FormController interface {
	SessionID() string
	EditLeft(text string) error
	EditRight(text string) error
	ClickPercentage(side domain.Side, percent int) error
	View() form.View
}

type FormHandler struct {
	form    FormController
	history domain.RateHistory
	logger  *slog.Logger
}

// history may be nil when the rate journal is disabled.
func NewFormHandler(f FormController, history domain.RateHistory, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		form:    f,
		history: history,
		logger:  logger,
	}
}

func (h *FormHandler) GetForm(c *gin.Context) {
	c.JSON(http.StatusOK, h.form.View())
}

func (h *FormHandler) EditLeft(c *gin.Context) {
	h.edit(c, h.form.EditLeft)
}

func (h *FormHandler) EditRight(c *gin.Context) {
	h.edit(c, h.form.EditRight)
}

// Любой текст принимается: некорректный ввод форма сама заменяет значением по умолчанию
func (h *FormHandler) edit(c *gin.Context, apply func(string) error) {
	var req formRequest.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formResponse.ErrorResponse{Error: err.Error()})
		return
	}

	if err := apply(req.Value); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, h.form.View())
}

func (h *FormHandler) ClickPercentage(c *gin.Context) {
	var req formRequest.PercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formResponse.ErrorResponse{Error: err.Error()})
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.form.ClickPercentage(side, req.Percent); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, h.form.View())
}

func (h *FormHandler) GetRateHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, formResponse.ErrorResponse{Error: "rate journal is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	quotes, err := h.history.Recent(c.Request.Context(), h.form.SessionID(), limit)
	if err != nil {
		h.logger.Error("failed to get rate history", "error", err)
		c.JSON(http.StatusInternalServerError, formResponse.ErrorResponse{Error: "Failed to get rate history"})
		return
	}

	c.JSON(http.StatusOK, formResponse.NewRateHistory(h.form.SessionID(), quotes))
}

func (h *FormHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSide), errors.Is(err, domain.ErrInvalidPercentage):
		c.JSON(http.StatusBadRequest, formResponse.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrFormClosed):
		c.JSON(http.StatusServiceUnavailable, formResponse.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("form request failed", "error", err)
		c.JSON(http.StatusInternalServerError, formResponse.ErrorResponse{Error: "internal error"})
	}
}
