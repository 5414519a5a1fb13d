package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"ridecare-backend/internal/inference"
	"ridecare-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxImageBytes = 10 << 20

// Inference is the set of model calls the app proxies.
type Inference interface {
	AnalyzeWound(ctx context.Context, filename string, image io.Reader) ([]byte, error)
	PredictSign(ctx context.Context, filename string, image io.Reader) (string, error)
	Ask(ctx context.Context, query string) (*inference.Answer, error)
}

type InferenceHandler struct {
	client    Inference
	validator *validator.Validate
	logger    *zap.Logger
}

type ChatRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

func NewInferenceHandler(client Inference, logger *zap.Logger) *InferenceHandler {
	return &InferenceHandler{
		client:    client,
		validator: validator.New(),
		logger:    logger,
	}
}

// AnalyzeWound returns the PDF report for an uploaded wound photo
func (h *InferenceHandler) AnalyzeWound(c *gin.Context) {
	file, filename, ok := h.image(c)
	if !ok {
		return
	}
	defer file.Close()

	pdf, err := h.client.AnalyzeWound(c.Request.Context(), filename, file)
	if err != nil {
		h.inferenceError(c, "Wound analysis failed", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="wound-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// PredictSign returns the sign recognised in an uploaded frame
func (h *InferenceHandler) PredictSign(c *gin.Context) {
	file, filename, ok := h.image(c)
	if !ok {
		return
	}
	defer file.Close()

	prediction, err := h.client.PredictSign(c.Request.Context(), filename, file)
	if err != nil {
		h.inferenceError(c, "Sign prediction failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sign predicted successfully", gin.H{"prediction": prediction})
}

// Chat forwards a patient question to the medical assistant
func (h *InferenceHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	answer, err := h.client.Ask(c.Request.Context(), req.Query)
	if err != nil {
		h.inferenceError(c, "Assistant unavailable", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Answer received", answer)
}

func (h *InferenceHandler) image(c *gin.Context) (multipart.File, string, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "file is required", err)
		return nil, "", false
	}
	if header.Size > maxImageBytes {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image is too large", nil)
		return nil, "", false
	}

	file, err := header.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read upload", err)
		return nil, "", false
	}
	return file, header.Filename, true
}

func (h *InferenceHandler) inferenceError(c *gin.Context, message string, err error) {
	var remote *inference.RemoteError
	if errors.As(err, &remote) {
		h.logger.Warn(message, zap.Int("status", remote.StatusCode), zap.String("endpoint", remote.Endpoint))
		utils.ErrorResponse(c, http.StatusBadGateway, message, errors.New(remote.Message))
		return
	}

	h.logger.Error(message, zap.Error(err))
	utils.ErrorResponse(c, http.StatusServiceUnavailable, message, err)
}
