// Package server exposes the tutor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorly/internal/diagnosis"
	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/report"
	"github.com/abhisek/tutorly/internal/tutor"
)

// Deps are the services behind the handlers.
type Deps struct {
	Pipeline     *tutor.Pipeline
	Interactions *interactions.Store
	Feedback     *interactions.Recorder
	Tracker      *mastery.Tracker
	Gamification *gamification.Engine
	Analyzer     *diagnosis.Analyzer
	Reports      *report.Service
	// Health reports whether storage is reachable; nil always passes.
	Health func(ctx context.Context) error
}

type Server struct {
	deps Deps
	log  *logger.Logger
}

func New(deps Deps, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{deps: deps, log: log.With("component", "http")}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(s.log), gin.Recovery(), Session())

	router.GET("/healthcheck", s.HealthCheck)

	api := router.Group("/api")
	api.POST("/exchanges", s.CreateExchange)
	api.PUT("/interactions/:id/feedback", s.SetFeedback)

	students := api.Group("/students/:student")
	students.GET("/interactions", s.ListInteractions)
	students.GET("/progress", s.GetProgress)
	students.GET("/gamification", s.GetGamification)
	students.GET("/weak-topics", s.GetWeakTopics)

	teacher := api.Group("/teacher")
	teacher.Use(RequireTeacher())
	teacher.GET("/students", s.ListStudents)
	teacher.GET("/students/:student/dashboard", s.GetDashboard)
	teacher.GET("/students/:student/weekly", s.GetWeekly)

	return router
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
