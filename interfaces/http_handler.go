package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"application-intake/domain"
	"application-intake/infrastructure"
)

// EventPublisher delivers events about committed applications.
type EventPublisher interface {
	PublishApplicationSubmitted(ctx context.Context, evt domain.ApplicationSubmitted) error
}

// Dependencies are the collaborators the HTTP layer is built from.
// Events and Gatherer are optional.
type Dependencies struct {
	Config   *infrastructure.Config
	Store    *infrastructure.Store
	Videos   *infrastructure.VideoStorage
	Events   EventPublisher
	Metrics  *infrastructure.Metrics
	Gatherer prometheus.Gatherer
	Log      *logrus.Logger
}

type HTTPHandler struct {
	store   *infrastructure.Store
	videos  *infrastructure.VideoStorage
	events  EventPublisher
	metrics *infrastructure.Metrics
	log     *logrus.Logger

	maxRequestBytes int64
	multipartMemory int64
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewRouter returns a gin engine with middleware and every route installed.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestLogger(deps.Log),
		RequestMetrics(deps.Metrics),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			deps.Log.WithField("panic", recovered).Error("Request panicked")
			c.AbortWithStatusJSON(http.StatusInternalServerError, uploadResponse{
				Success: false,
				Message: domain.MsgUnexpected,
			})
		}),
	)
	NewHTTPHandler(router, deps)
	return router
}

// NewHTTPHandler registers the public, metrics and admin routes on router.
func NewHTTPHandler(router *gin.Engine, deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{
		store:           deps.Store,
		videos:          deps.Videos,
		events:          deps.Events,
		metrics:         deps.Metrics,
		log:             deps.Log,
		maxRequestBytes: deps.Config.Server.MaxRequestBytes,
		multipartMemory: deps.Config.Server.MultipartMemory,
	}

	router.POST("/upload", h.Upload)
	router.POST("/upload.php", h.Upload)
	router.GET("/health", h.Health)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if admin := deps.Config.Admin; admin.Password != "" {
		group := router.Group("/admin", gin.BasicAuth(gin.Accounts{admin.Username: admin.Password}))
		group.GET("/applications", h.ListApplications)
		group.GET("/applications/export.csv", h.ExportApplications)
		group.GET("/videos/:filename", h.DownloadVideo)
	}

	return h
}

// Health never touches the database.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload accepts one application form with its video.
func (h *HTTPHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestBytes)

	if err := h.submit(c); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{Success: true, Message: domain.MsgSubmitted})
}

func (h *HTTPHandler) submit(c *gin.Context) error {
	req := c.Request
	// ParseMultipartForm drops ParseForm's error, so a urlencoded body over
	// the limit has to be caught here.
	if err := req.ParseForm(); err != nil {
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return tooLarge
		}
	}
	if err := req.ParseMultipartForm(h.multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return tooLarge
		}
		return fmt.Errorf("parse multipart form: %w", err)
	}

	app, err := domain.NewApplicationForm(c.PostForm).Validate()
	if err != nil {
		return err
	}

	file, header, err := req.FormFile("video")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			// An empty file input arrives as a plain value, not a file part.
			if req.MultipartForm != nil && len(req.MultipartForm.Value["video"]) > 0 {
				return domain.ErrNoVideoSelected
			}
			return domain.ErrVideoRequired
		}
		return fmt.Errorf("read video part: %w", err)
	}
	defer file.Close()

	if header.Filename == "" {
		return domain.ErrNoVideoSelected
	}
	ext, err := h.videos.Extension(header.Filename)
	if err != nil {
		return err
	}

	if err := h.videos.EnsureDir(); err != nil {
		return err
	}
	name, size, err := h.videos.Save(file, ext)
	if err != nil {
		return err
	}
	h.metrics.VideoBytes.Observe(float64(size))

	// A failure from here on rolls back but keeps the stored video.
	app.VideoFilename = name
	if err := h.store.WithTx(req.Context(), func(tx *gorm.DB) error {
		return h.store.InsertApplication(tx, app)
	}); err != nil {
		return err
	}

	h.metrics.ApplicationsSubmitted.Inc()
	h.publish(context.WithoutCancel(req.Context()), app)
	return nil
}

func bodyTooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body over %d bytes", domain.ErrFileTooLarge, maxErr.Limit)
	}
	return nil
}

func (h *HTTPHandler) publish(ctx context.Context, app *domain.Application) {
	if h.events == nil {
		return
	}
	evt := domain.ApplicationSubmitted{
		ApplicationID: app.ID,
		Name:          app.Name,
		Email:         app.Email,
		VideoFilename: app.VideoFilename,
		SubmittedAt:   app.UploadedAt,
	}
	if err := h.events.PublishApplicationSubmitted(ctx, evt); err != nil {
		h.metrics.PublishFailures.Inc()
		h.log.WithError(err).WithField("application_id", app.ID).Warn("Failed to publish application event")
	}
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	entry := h.log.WithError(err).WithField("request_id", c.GetString(requestIDKey))

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		kind := infrastructure.FailureValidation
		if errors.Is(err, domain.ErrFileTooLarge) {
			kind = infrastructure.FailureTooLarge
		}
		h.metrics.UploadFailures.WithLabelValues(kind).Inc()
		entry.Warn("Upload error")
		c.JSON(http.StatusBadRequest, uploadResponse{Success: false, Message: verr.Message})
		return
	}

	h.metrics.UploadFailures.WithLabelValues(infrastructure.FailureUnexpected).Inc()
	entry.Error("Upload error")
	c.JSON(http.StatusInternalServerError, uploadResponse{Success: false, Message: domain.MsgUnexpected})
}
