package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	Engine *gin.Engine
	srv    *http.Server
}

type ServerOptions struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

func NewServer(cfg RouterConfig, opts ServerOptions) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			IdleTimeout:       opts.IdleTimeout,
		},
	}
}

func (s *Server) Addr() string { return s.srv.Addr }

// Run blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
