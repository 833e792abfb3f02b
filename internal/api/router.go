// Package api exposes the prediction service over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attrition/internal/predict"
)

// Options tune the router.
type Options struct {
	BasePath string
	APIKey   string
}

// NewRouter builds the gin engine for svc.
func NewRouter(svc *predict.Service, log *zap.Logger, opts Options) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	h := NewHandler(svc, log)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	})
	r.Use(RequestID())
	r.Use(Logger(log))
	r.Use(Recovery(log))

	base := r.Group(opts.BasePath)
	base.GET("/health", h.Health)
	base.GET("/features", h.Features)

	guarded := base.Group("/")
	guarded.Use(APIKey(opts.APIKey))
	guarded.POST("/predict", h.Predict)
	guarded.POST("/predict/batch", h.PredictBatch)

	return r
}
