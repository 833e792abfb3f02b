package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"attrition/internal/api"
	"attrition/internal/config"
	"attrition/internal/features"
	"attrition/internal/models"
	"attrition/internal/predict"
	"attrition/pkg/utils"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "attrition-api",
	Short:         "Serves employee attrition predictions over HTTP",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); ATTRITION_* env vars override it")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(utils.LogOptions{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bundle, err := loadBundle(cfg.Model.Path, logger)
	if err != nil {
		return err
	}

	schema := features.Default()
	if bundle != nil {
		checkSchema(schema, bundle, logger)
	}

	gin.SetMode(cfg.Server.Mode)
	svc := predict.NewService(bundle, schema, logger)
	router := api.NewRouter(svc, logger, api.Options{BasePath: cfg.Server.BasePath, APIKey: cfg.Server.APIKey})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("predict", cfg.Server.BasePath+"/predict"),
			zap.String("health", cfg.Server.BasePath+"/health"),
			zap.Bool("model_loaded", svc.Ready()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server exited")
	return nil
}

// loadBundle returns a nil bundle when the file is missing so the server can
// start degraded; any other load failure is fatal.
func loadBundle(path string, logger *zap.Logger) (*models.Bundle, error) {
	bundle, err := models.LoadBundle(path)
	switch {
	case errors.Is(err, models.ErrModelNotFound):
		logger.Warn("model not found, serving without a model; train and save one first", zap.String("path", path), zap.Error(err))
		return nil, nil
	case err != nil:
		logger.Error("error loading model", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	logger.Info("model loaded",
		zap.String("path", path),
		zap.String("model", bundle.Model.Name()),
		zap.Strings("categorical_features", bundle.CategoricalFeatures),
		zap.Strings("feature_order", bundle.FeatureOrder),
	)
	return bundle, nil
}

// checkSchema warns when the published feature schema and the bundle's
// feature order have drifted apart. It reports whether they agree.
func checkSchema(schema *features.Schema, bundle *models.Bundle, logger *zap.Logger) bool {
	published := schema.Names()
	ok := len(published) == len(bundle.FeatureOrder)
	for i := 0; ok && i < len(published); i++ {
		ok = published[i] == bundle.FeatureOrder[i]
	}
	if !ok {
		logger.Warn("feature schema does not match the model's feature order",
			zap.Strings("schema", published),
			zap.Strings("feature_order", bundle.FeatureOrder),
		)
	}
	return ok
}
