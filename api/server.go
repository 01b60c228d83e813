package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/npillmayer/livedoc/document"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves a registry of documents over HTTP.
type Server struct {
	registry *Registry
	server   *http.Server
}

// Start wraps the router for registry in an HTTP server listening on
// address. Errors of the listener are reported to errorCallback.
func Start(address string, registry *Registry, errorCallback func(err error)) (*Server, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: server address is required", document.ErrBadParameter)
	}
	s := &Server{registry: registry}
	s.server = &http.Server{
		Addr:    address,
		Handler: NewRouter(registry),
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errorCallback(err)
		}
	}()
	tracer().Infof("serving documents at %s", address)
	return s, nil
}

// Stop shuts the server down, waiting at most 5 seconds for pending requests.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.server = nil
	return nil
}

// NewRouter creates the routes for all documents of registry.
func NewRouter(registry *Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(recovered), requestID())
	router.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers{registry: registry}
	docs := router.Group("/api/v1/document")
	docs.GET("", h.list)
	docs.POST("", h.create)

	one := docs.Group("/:docId", h.lookup)
	one.GET("", h.serialize)
	one.PUT("", h.load)
	one.GET("/dump", h.dump)
	one.POST("/save", h.save)

	xml := one.Group("/xml")
	xml.GET("/get", h.get)
	xml.POST("/paste", h.paste)
	xml.POST("/cut", h.cut)
	xml.POST("/modifyAttributes", h.modifyAttributes)
	xml.POST("/modifyData", h.modifyData)
	xml.POST("/copy", h.copy)
	xml.POST("/move", h.move)

	ev := one.Group("/events")
	ev.GET("", h.events)
	ev.POST("/trigger", h.trigger)
	ev.POST("/modify", h.modify)

	sv := one.Group("/serve")
	sv.GET("/timeline.xml", h.timeline)
	sv.GET("/layout.json", h.layout)
	sv.PUT("/layout.json", h.putLayout)
	sv.GET("/client.json", h.client)
	sv.POST("/addcallback", h.addCallback)

	one.PUT("/remote", h.remote)
	return router
}

const requestIDHeader = "X-Request-Id"

// requestID tags every request with a context id, which is echoed in the
// response and used to correlate trace output.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		tracer().P("request", id).Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
		c.Next()
	}
}

func recovered(c *gin.Context, err any) {
	tracer().P("request", c.GetString(requestIDHeader)).Errorf("panic: %v", err)
	c.String(http.StatusInternalServerError,
		fmt.Sprintf("%d Internal Server Error - %v", http.StatusInternalServerError, err))
}

// statusFor maps document errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrGeneration):
		return http.StatusConflict
	case errors.Is(err, document.ErrAmbiguousPath),
		errors.Is(err, document.ErrNoParent),
		errors.Is(err, document.ErrBadParameter),
		errors.Is(err, document.ErrParse):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	tracer().P("request", c.GetString(requestIDHeader)).Infof("%s %s: %v",
		c.Request.Method, c.Request.URL.Path, err)
	c.String(status, fmt.Sprintf("%d %s - %v", status, http.StatusText(status), err))
	c.Abort()
}
