package filter

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/sms-spam-explainer/internal/core"
	"github.com/mikey/sms-spam-explainer/internal/dataset"
	"go.uber.org/zap"
)

// ExplainRequest is the body of POST /api/v1/explain
type ExplainRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	TopK   int    `json:"top_k"`
}

// CompareRequest is the body of POST /api/v1/compare
type CompareRequest struct {
	Original string `json:"original"`
	Edited   string `json:"edited"`
	Sender   string `json:"sender"`
	TopK     int    `json:"top_k"`
}

// SampleResponse pairs a dataset message with its explanation
type SampleResponse struct {
	Sample      dataset.Sample          `json:"sample"`
	Explanation *core.ExplanationResult `json:"explanation"`
}

// HTTPFilter exposes the explainer service as a JSON API
type HTTPFilter struct {
	service      *core.ExplainerService
	logger       *zap.Logger
	dataset      *dataset.Dataset
	listenAddr   string
	readTimeout  time.Duration
	writeTimeout time.Duration
	router       *gin.Engine
	server       *http.Server

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewHTTPFilter creates a new HTTP filter. The dataset is optional, without
// it the sample route answers 404.
func NewHTTPFilter(
	service *core.ExplainerService,
	logger *zap.Logger,
	ds *dataset.Dataset,
	listenAddr string,
	readTimeout time.Duration,
	writeTimeout time.Duration,
) *HTTPFilter {
	f := &HTTPFilter{
		service:      service,
		logger:       logger,
		dataset:      ds,
		listenAddr:   listenAddr,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	f.router = f.setupRoutes()
	return f
}

func (f *HTTPFilter) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(f.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/explain", f.handleExplain)
	api.POST("/compare", f.handleCompare)
	api.GET("/sample", f.handleSample)

	return router
}

// requestLogger logs one structured line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Handler returns the HTTP handler serving the API
func (f *HTTPFilter) Handler() http.Handler {
	return f.router
}

// Start starts serving the API in the background
func (f *HTTPFilter) Start() error {
	f.server = &http.Server{
		Addr:         f.listenAddr,
		Handler:      f.router,
		ReadTimeout:  f.readTimeout,
		WriteTimeout: f.writeTimeout,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}

// ProcessMessage explains a message with the configured defaults
func (f *HTTPFilter) ProcessMessage(ctx context.Context, msg *core.Message) (*core.ExplanationResult, error) {
	return f.service.Explain(ctx, msg, 0)
}

func (f *HTTPFilter) handleExplain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := f.service.Explain(c.Request.Context(), &core.Message{Sender: req.Sender, Text: req.Text}, req.TopK)
	if err != nil {
		f.logger.Error("Failed to explain message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to explain message"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (f *HTTPFilter) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cmp, err := f.service.CompareEdit(c.Request.Context(),
		&core.Message{Sender: req.Sender, Text: req.Original},
		&core.Message{Sender: req.Sender, Text: req.Edited},
		req.TopK)
	if err != nil {
		f.logger.Error("Failed to compare messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare messages"})
		return
	}

	c.JSON(http.StatusOK, cmp)
}

func (f *HTTPFilter) handleSample(c *gin.Context) {
	if f.dataset == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not configured"})
		return
	}

	label := c.Query("label")
	if label != "" && label != dataset.LabelHam && label != dataset.LabelSpam {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label must be ham or spam"})
		return
	}

	f.rngMu.Lock()
	sample, err := f.dataset.Random(f.rng, label)
	f.rngMu.Unlock()
	if err != nil {
		if errors.Is(err, dataset.ErrNoSamples) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sample dataset"})
		return
	}

	result, err := f.service.Explain(c.Request.Context(), &core.Message{Text: sample.Text}, 0)
	if err != nil {
		f.logger.Error("Failed to explain sample", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to explain message"})
		return
	}

	c.JSON(http.StatusOK, SampleResponse{Sample: sample, Explanation: result})
}
