// Package api exposes a session over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/internal/metrics"
	"github.com/seagrayinc/bfble/internal/session"
	"github.com/seagrayinc/bfble/internal/transport"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

// Engine is the part of a session the API drives.
type Engine interface {
	State() transport.State
	Latest(t bafang.RecordType) (bafang.Record, bool)
	Sizes() bafang.SizeTable
	RequestFullRecord(ctx context.Context, t bafang.RecordType) error
	RequestDataSegment(ctx context.Context, t bafang.RecordType, start, length int) error
	WriteBlock(ctx context.Context, t bafang.RecordType, offset int, b []byte) error
	Apply(ctx context.Context, w bafang.Write) error
	Disconnect(ctx context.Context) error
}

var _ Engine = (*session.Session)(nil)

type Server struct {
	engine   Engine
	router   *gin.Engine
	log      zerolog.Logger
	appeared time.Time
}

func New(engine Engine, corsOrigins []string, log zerolog.Logger) *Server {
	metrics.Register()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET", "POST", "PUT"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{engine: engine, router: r, log: log, appeared: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("api listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type segmentRequest struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

type writeRequest struct {
	Offset int    `json:"offset"`
	Data   string `json:"data"`
}

type fieldRequest struct {
	Value *int64 `json:"value"`
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.appeared).String(),
			"state":  s.engine.State().String(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": s.engine.State().String()})
	})

	r.GET("/records", func(c *gin.Context) {
		sizes := s.engine.Sizes()
		out := make([]gin.H, 0, len(sizes))
		for _, t := range sizes.Types() {
			_, cached := s.engine.Latest(t)
			out = append(out, gin.H{
				"type":    t.String(),
				"id":      uint8(t),
				"size":    sizes[t],
				"partial": bafang.SupportsPartial(t),
				"cached":  cached,
			})
		}
		c.JSON(http.StatusOK, gin.H{"records": out})
	})

	r.GET("/records/:type", func(c *gin.Context) {
		t, ok := recordType(c)
		if !ok {
			return
		}
		rec, ok := s.engine.Latest(t)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no " + t.String() + " record received"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": t.String(), "record": rec})
	})

	r.POST("/records/:type/read", func(c *gin.Context) {
		t, ok := recordType(c)
		if !ok {
			return
		}
		s.respond(c, s.engine.RequestFullRecord(c.Request.Context(), t))
	})

	r.POST("/records/:type/segment", func(c *gin.Context) {
		t, ok := recordType(c)
		if !ok {
			return
		}
		var req segmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.respond(c, s.engine.RequestDataSegment(c.Request.Context(), t, req.Start, req.Length))
	})

	r.POST("/records/:type/write", func(c *gin.Context) {
		t, ok := recordType(c)
		if !ok {
			return
		}
		var req writeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data, err := frame.ParseHex(req.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.respond(c, s.engine.WriteBlock(c.Request.Context(), t, req.Offset, data))
	})

	r.PUT("/records/:type/fields/:field", func(c *gin.Context) {
		t, ok := recordType(c)
		if !ok {
			return
		}
		var req fieldRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
			return
		}
		w, err := bafang.FieldWrite(t, c.Param("field"), *req.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.respond(c, s.engine.Apply(c.Request.Context(), w))
	})

	// The transport is closed for good; the server keeps answering with the link reported
	// as disconnected until the process is restarted.
	r.POST("/disconnect", func(c *gin.Context) {
		s.respond(c, s.engine.Disconnect(c.Request.Context()))
	})
}

func recordType(c *gin.Context) (bafang.RecordType, bool) {
	t, err := bafang.ParseRecordType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return t, true
}

// respond maps a queueing result to a status. Accepted work has only been queued, the
// reply arrives on the record feed.
func (s *Server) respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	case errors.Is(err, session.ErrTransportUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	}
}
