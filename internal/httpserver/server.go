// Package httpserver exposes the highlighter over HTTP: upload a PDF with a
// keyword selection and get back the zip archive.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

const (
	// RequestIDHeader carries the per-request id, generated when absent.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"

	// multipartOverhead allows for form fields and boundaries on top of the file
	multipartOverhead = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	service *pdf.Service
	logger  *logrus.Logger
	router  *gin.Engine
}

// New builds the router.
func New(service *pdf.Service, logger *logrus.Logger) *Server {
	s := &Server{
		service: service,
		logger:  logger,
	}

	r := gin.New()
	r.MaxMultipartMemory = service.GetMaxFileSize()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	api.GET("/keywords", s.listKeywords)
	api.POST("/highlight", s.highlight)

	s.router = r
	return s
}

// Handler returns the http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := s.requestLogger(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	}
}

func (s *Server) requestLogger(c *gin.Context) *logrus.Entry {
	return s.logger.WithField(requestIDKey, c.GetString(requestIDKey))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listKeywords(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Keywords())
}

// highlight takes a multipart form: file, keywords (repeat the field for each
// keyword), select_all and custom_keywords (one keyword per line).
func (s *Server) highlight(c *gin.Context) {
	limit := s.service.GetMaxFileSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.fail(c, http.StatusRequestEntityTooLarge, pdf.ErrFileTooLarge)
			return
		}
		s.fail(c, http.StatusBadRequest, fmt.Errorf("missing PDF upload in form field \"file\": %w", err))
		return
	}
	if header.Size > limit {
		s.fail(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: %d bytes (max: %d bytes)", pdf.ErrFileTooLarge, header.Size, limit))
		return
	}

	selectAll := false
	if raw := c.PostForm("select_all"); raw != "" {
		if selectAll, err = strconv.ParseBool(raw); err != nil {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid select_all value %q", raw))
			return
		}
	}

	// One keyword per field; commas are part of the keyword
	var picked []string
	for _, v := range c.PostFormArray("keywords") {
		if v = strings.TrimSpace(v); v != "" {
			picked = append(picked, v)
		}
	}

	file, err := header.Open()
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("cannot read upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("cannot read upload: %w", err))
		return
	}

	result, err := s.service.Highlight(c.Request.Context(), pdf.HighlightRequest{
		Filename: header.Filename,
		Data:     data,
		Selection: keywords.Selection{
			All:    selectAll,
			Picked: picked,
			Custom: c.PostForm("custom_keywords"),
		},
	})
	if errors.Is(err, scanner.ErrNothingFound) {
		c.JSON(http.StatusOK, gin.H{"found": false, "message": "No keywords found in the PDF."})
		return
	}
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	c.Header("X-Keywords-Found", strconv.Itoa(result.KeywordsFound))
	c.Header("X-Highlights", strconv.Itoa(result.Highlights))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": result.Names.Archive,
	}))
	c.Data(http.StatusOK, "application/zip", result.Archive)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, scanner.ErrEmptyKeywordSet), errors.Is(err, scanner.ErrBlankKeyword):
		return http.StatusBadRequest
	case errors.Is(err, pdf.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pdf.ErrNotPDF), errors.Is(err, wrapper.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	s.requestLogger(c).WithError(err).WithField("status", status).Warn("highlight rejected")
	c.AbortWithStatusJSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}
