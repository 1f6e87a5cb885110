package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/adapter"
	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Node runs the adapter API and, when a metrics port is set, the Prometheus endpoint.
type Node struct {
	server        *Server
	metricsServer *http.Server
	logger        *zap.Logger
}

// Config holds node configuration
type Config struct {
	Port        int
	MetricsPort int
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

func NewNode(cfg Config, a *adapter.Adapter) *Node {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}

	n := &Node{
		server: NewServer(a, cfg.Port, l),
		logger: l,
	}
	if cfg.MetricsPort > 0 && cfg.Gatherer != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(cfg.Gatherer))
		n.metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return n
}

// Run serves until ctx is cancelled or a server fails, then shuts every server down.
func (n *Node) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	servers := []*http.Server{n.server.httpServer}
	if n.metricsServer != nil {
		servers = append(servers, n.metricsServer)
	}

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			n.logger.Sugar().Infow("Starting HTTP server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				n.logger.Sugar().Errorw("HTTP server shutdown failed", "addr", srv.Addr, "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// GetHandler returns the API handler (for testing)
func (n *Node) GetHandler() http.Handler {
	return n.server.GetHandler()
}
