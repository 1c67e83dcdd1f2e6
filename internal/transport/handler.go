// Package transport wires the gin HTTP surface: request validation,
// upload/download handling, the orchestrator call, and response
// assembly, following the teacher's single-handler-file convention.
package transport

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/visionmux/internal/apperrors"
	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/internal/uploads"
	"github.com/menta2k/visionmux/pkg/assembler"
	"github.com/menta2k/visionmux/pkg/captions"
	"github.com/menta2k/visionmux/pkg/health"
	"github.com/menta2k/visionmux/pkg/orchestrator"
	"github.com/menta2k/visionmux/pkg/types"
)

// Deps bundles everything a handler needs, built once at startup.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Uploads    *uploads.Manager
	Orchestr   *orchestrator.Orchestrator
	Prober     *health.Prober
	Aggregator *captions.Aggregator
}

// NewRouter builds the gin engine with every route this system exposes.
func NewRouter(d *Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger), requestSizeLimiter(d.Config.Server.MaxFileSizeBytes))

	r.GET("/health", healthHandler(d))
	r.GET("/services/health", servicesHealthHandler(d))
	r.GET("/analyze", analyzeGetHandler(d))
	r.POST("/analyze", analyzePostHandler(d))

	return r
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func analyzeGetHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		imageURL := c.Query("url")
		filePath := c.Query("file")

		switch {
		case imageURL != "":
			runAnalysis(c, d, orchestrator.Source{URL: imageURL}, types.ImageData{
				ProcessingMethod: types.ProcessingExternalURLDownloaded,
				ImageURL:         imageURL,
			}, imageURL, "")
		case filePath != "":
			runAnalysis(c, d, orchestrator.Source{FilePath: filePath}, types.ImageData{
				ProcessingMethod: types.ProcessingDirectFileAccess,
				FilePath:         filePath,
			}, "", filePath)
		default:
			respondError(c, apperrors.NewValidationError("either url or file query parameter is required", ""))
		}
	}
}

func analyzePostHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("image")
		if err != nil {
			respondError(c, apperrors.NewValidationError("image multipart field is required", err.Error()))
			return
		}

		path, err := d.Uploads.SaveMultipart(header)
		if err != nil {
			respondError(c, err)
			return
		}

		runAnalysis(c, d, orchestrator.Source{FilePath: path}, types.ImageData{
			ProcessingMethod: types.ProcessingFileUpload,
			FilePath:         path,
		}, "", path)
	}
}

func runAnalysis(c *gin.Context, d *Deps, src orchestrator.Source, img types.ImageData, imageURL, imageFile string) {
	start := time.Now()
	ctx := c.Request.Context()

	// A URL source that needs local bytes (dimension measurement) is
	// downloaded once up front; the analyzers themselves still receive
	// url= directly, per the unified wire contract.
	if src.URL != "" {
		if downloaded, err := d.Uploads.DownloadToFile(ctx, src.URL); err == nil {
			img.FilePath = downloaded
			img.OriginalURL = src.URL
			defer cleanupDownload(d, downloaded)
		} else {
			d.Logger.Debug("dimension-only download failed, proceeding without measured dimensions",
				zap.Error(err))
		}
	}

	dimsSrc := src
	if img.FilePath != "" {
		dimsSrc = orchestrator.Source{FilePath: img.FilePath, URL: src.URL}
	}

	run := d.Orchestr.Analyze(ctx, dimsSrc)
	img.Dimensions = run.Dims

	resp := assembler.Assemble(ctx, run, d.Aggregator, d.Config.Analyzers, img, imageURL, imageFile, start)
	d.Logger.Info("analysis complete",
		zap.String("image_id", resp.ImageID),
		zap.String("processing_method", string(img.ProcessingMethod)),
		zap.Float64("analysis_time_seconds", resp.AnalysisTimeSeconds))
	c.JSON(http.StatusOK, resp)
}

func cleanupDownload(d *Deps, path string) {
	if err := os.Remove(path); err != nil {
		d.Logger.Debug("failed to remove downloaded temp file", zap.String("path", path), zap.Error(err))
	}
}

func healthHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		results, overall := d.Prober.ProbeAll(ctx, d.Config.Analyzers)
		c.JSON(http.StatusOK, health.Summary(results, overall))
	}
}

func servicesHealthHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		results, overall := d.Prober.ProbeAll(ctx, d.Config.Analyzers)
		c.JSON(http.StatusOK, health.ServicesStatus(results, overall))
	}
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, types.ErrorResponse{Success: false, Error: appErr.Message, Details: appErr.Details})
		return
	}
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{Success: false, Error: "internal error", Details: err.Error()})
}
