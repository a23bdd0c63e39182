// Package admin serves operator endpoints over fasthttp.
package admin

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/park285/checkers-server/internal/lobby"
	"github.com/park285/checkers-server/internal/obslog"
)

// StatsSource reports pool occupancy.
type StatsSource interface {
	Stats() lobby.Stats
}

// TableLister lists mirrored live tables.
type TableLister interface {
	ListActive(ctx context.Context) ([]lobby.TableSnapshot, error)
}

// Server exposes /healthz, /metrics, /stats and /tables.
type Server struct {
	stats   StatsSource
	tables  TableLister
	metrics fasthttp.RequestHandler
	srv     *fasthttp.Server
}

// New builds the admin server. tables and reg may be nil; the matching
// endpoints then answer 503.
func New(stats StatsSource, tables TableLister, reg *prometheus.Registry) *Server {
	s := &Server{stats: stats, tables: tables}
	if reg != nil {
		s.metrics = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "checkers-admin",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler routes one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	case "/metrics":
		if s.metrics == nil {
			ctx.Error("metrics disabled", fasthttp.StatusServiceUnavailable)
			return
		}
		s.metrics(ctx)
	case "/stats":
		writeJSON(ctx, s.stats.Stats())
	case "/tables":
		if s.tables == nil {
			ctx.Error("table mirror not configured", fasthttp.StatusServiceUnavailable)
			return
		}
		list, err := s.tables.ListActive(ctx)
		if err != nil {
			obslog.L().Warn("admin_tables_failed", zap.Error(err))
			ctx.Error("table mirror unavailable", fasthttp.StatusBadGateway)
			return
		}
		writeJSON(ctx, list)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}

// Serve answers requests on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	obslog.L().Info("admin_listen", zap.String("addr", ln.Addr().String()))
	return s.srv.Serve(ln)
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}
