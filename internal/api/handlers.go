package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attrition/internal/predict"
)

// Handler serves the prediction endpoints.
type Handler struct {
	svc *predict.Service
	log *zap.Logger
}

func NewHandler(svc *predict.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// HealthStatus is the GET /health body.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Health handles GET /health. It always answers 200 so probes can read the
// model state of a degraded instance.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthStatus{Status: "healthy", ModelLoaded: h.svc.Ready()})
}

// Features handles GET /features.
func (h *Handler) Features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.svc.Schema().Describe()})
}

// Predict handles POST /predict.
func (h *Handler) Predict(c *gin.Context) {
	if !h.svc.Ready() {
		h.respondError(c, predict.ErrServiceUnavailable)
		return
	}
	var payload map[string]any
	if err := bindStrictJSON(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.svc.Predict(payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PredictBatch handles POST /predict/batch with a JSON array of requests.
func (h *Handler) PredictBatch(c *gin.Context) {
	if !h.svc.Ready() {
		h.respondError(c, predict.ErrServiceUnavailable)
		return
	}
	var payloads []map[string]any
	if err := bindStrictJSON(c, &payloads); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.svc.PredictBatch(payloads)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// bindStrictJSON decodes exactly one JSON value from the request body into v.
// Numbers stay json.Number so text fields keep their literal form. Anything
// after the value other than whitespace makes the body invalid.
func bindStrictJSON(c *gin.Context, v any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after the JSON value", ErrInvalidJSON)
	}
	return nil
}
