package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"DivergenceSentinel/internal/collector"
	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/notifier"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/render"
	"DivergenceSentinel/internal/scanner"
	"DivergenceSentinel/internal/symbol"
	"DivergenceSentinel/internal/watchlist"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Server exposes the analysis, watchlist and history over a JSON API.
type Server struct {
	Scanner  *scanner.Scanner
	Recorder recorder.Recorder
	engine   *gin.Engine
}

// New creates a Server and registers its routes. rec may be nil.
func New(sc *scanner.Scanner, rec recorder.Recorder) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{Scanner: sc, Recorder: rec, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLog())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/analysis/:code", s.getAnalysis)
	api.GET("/chart/:code", s.getChart)
	api.GET("/watchlist", s.listWatchlist)
	api.POST("/watchlist", s.addWatchlist)
	api.DELETE("/watchlist/:code", s.deleteWatchlist)
	api.POST("/scan", s.postScan)
	api.GET("/history", s.getHistory)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Println("[INFO] HTTP API stopped")
	return nil
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[INFO] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond))
	}
}

// statusFor maps an error to the HTTP status that tells bad input apart from
// data problems and provider failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, symbol.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, watchlist.ErrExists):
		return http.StatusConflict
	case errors.Is(err, watchlist.ErrNotFound):
		return http.StatusNotFound
	case model.IsDataQuality(err):
		return http.StatusUnprocessableEntity
	case collector.IsFetchError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "reason": notifier.FailureReason(err)})
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.Scanner.Collector.Fetcher.Name(),
		"preset": s.Scanner.Config.Name,
	})
}

func (s *Server) getAnalysis(c *gin.Context) {
	rep, err := s.Scanner.AnalyzeOne(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(rep))
}

func (s *Server) getChart(c *gin.Context) {
	rep, err := s.Scanner.AnalyzeOne(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	title := fmt.Sprintf("%s %s", rep.DisplayName(), rep.Code)
	if err := render.WriteChart(&buf, title, rep.Analysis); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) listWatchlist(c *gin.Context) {
	items, err := s.Scanner.Watchlist.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []model.WatchItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) addWatchlist(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	item, err := s.Scanner.Watchlist.Add(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) deleteWatchlist(c *gin.Context) {
	if err := s.Scanner.Watchlist.Remove(c.Request.Context(), c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postScan(c *gin.Context) {
	report, err := s.Scanner.Scan(c.Request.Context(), "api")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScanResponse(report))
}

func (s *Server) getHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	records, err := s.Recorder.RecentAnalyses(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []recorder.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
