package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/beaconmesh/indoor-positioning-server/internal/config"
	"github.com/beaconmesh/indoor-positioning-server/internal/discovery"
	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/positioning"
	"github.com/beaconmesh/indoor-positioning-server/internal/reference"
	"github.com/beaconmesh/indoor-positioning-server/internal/routegraph"
	"github.com/beaconmesh/indoor-positioning-server/internal/session"
	"github.com/beaconmesh/indoor-positioning-server/internal/store"
	"github.com/beaconmesh/indoor-positioning-server/internal/transport"
)

// App wires together the indoor positioning services and manages their lifecycle.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	store       *store.Store
	registry    *mapregistry.Registry
	coordinator *session.Coordinator
	broker      *discovery.Broker
	mdns        *zeroconf.Server
}

// New constructs a new application instance.
func New(cfg config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run starts all configured services and blocks until the context is cancelled or an error occurs.
func (a *App) Run(ctx context.Context) error {
	db, err := store.Open(a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	a.store = db

	if err := a.store.InitSchema(ctx); err != nil {
		return err
	}

	defer func() {
		if cerr := a.store.Close(); cerr != nil {
			a.logger.Error("close store", "error", cerr)
		}
	}()

	registry, err := reference.LoadBeaconRegistry(a.cfg.BeaconsPath)
	if err != nil {
		return err
	}
	a.registry = registry

	graph, err := reference.LoadRouteGraph(a.cfg.RouteGraphPath)
	if err != nil {
		return err
	}

	orchestrator := positioning.NewOrchestrator(registry)
	planner := routegraph.NewPathPlanner(graph)
	a.coordinator = session.New(a.logger, registry, orchestrator, planner, a.store, a.cfg.DefaultMode)
	defer a.coordinator.Shutdown()

	broker := discovery.New(a.logger)
	ingestor := discovery.NewIngestor(storeSink{a.store})
	broker.SetScanReportHandler(func(ctx context.Context, r discovery.ScanReport) {
		if err := ingestor.Handle(ctx, r); err != nil {
			a.logger.Warn("discovery ingest failed", "scanner", r.ScannerID, "topic", r.Topic, "error", err)
		}
	})
	brokerErrCh, err := broker.Start(a.cfg.MQTTBindAddress)
	if err != nil {
		return err
	}
	a.broker = broker

	if a.cfg.MDNSEnabled {
		mqttPort := resolveTCPPort(broker.Addr())
		if mqttPort == 0 {
			a.logger.Warn("unable to determine discovery port for mDNS advertisement", "addr", a.cfg.MQTTBindAddress)
		} else if err := a.startMDNS(mqttPort); err != nil {
			a.logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer a.stopMDNS()
		}
	}

	httpErrCh := make(chan error, 1)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler: a.routes(),
	}

	go func() {
		a.logger.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			a.logger.Info("http server stopped")

			if err := a.broker.Stop(); err != nil {
				return err
			}
			a.logger.Info("discovery broker stopped")
			return nil
		case err := <-httpErrCh:
			if err != nil {
				_ = a.broker.Stop()
				return err
			}
		case err, ok := <-brokerErrCh:
			if !ok {
				brokerErrCh = nil
				continue
			}
			if err != nil {
				_ = httpServer.Shutdown(context.Background())
				_ = a.broker.Stop()
				return err
			}
		}
	}
}

// storeSink adapts *store.Store to discovery.Sink.
type storeSink struct{ s *store.Store }

func (ss storeSink) UpsertDiscoveredBeacon(ctx context.Context, o discovery.Observation) error {
	return ss.s.UpsertDiscoveredBeacon(ctx, store.DiscoveredBeacon{
		ScannerID:  o.ScannerID,
		BeaconMAC:  o.BeaconMAC,
		RSSI:       o.RSSI,
		TxPower:    o.TxPower,
		LastSeenMs: o.LastSeenMs,
	})
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/readyz", a.handleReadyz)
	mux.Handle("/ws", transport.NewHandler(a.logger, a.coordinator))
	mux.HandleFunc("/api/registry", a.handleRegistry)
	mux.HandleFunc("/api/sessions", a.handleSessions)
	mux.HandleFunc("/api/discovered", a.handleDiscovered)
	return mux
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.store == nil || a.coordinator == nil || a.broker == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func (a *App) handleRegistry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Beacons []beaconSummary `json:"beacons"`
	}{Beacons: summarizeBeacons(a.registry)}); err != nil {
		a.logger.Error("registry encode failed", "error", err)
	}
}

type beaconSummary struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func summarizeBeacons(registry *mapregistry.Registry) []beaconSummary {
	beacons := registry.Beacons()
	out := make([]beaconSummary, 0, len(beacons))
	for _, b := range beacons {
		out = append(out, beaconSummary{ID: b.ID, X: b.X, Y: b.Y})
	}
	return out
}

func (a *App) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ConnectedUsers int    `json:"connectedUsers"`
		DefaultMode    string `json:"defaultMode"`
	}{
		ConnectedUsers: a.coordinator.ConnectedCount(),
		DefaultMode:    string(a.coordinator.DefaultMode()),
	})
}

func (a *App) handleDiscovered(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	beacons, err := a.store.ListDiscoveredBeacons(ctx)
	if err != nil {
		a.logger.Error("discovered beacons query failed", "error", err)
		http.Error(w, "failed to load discovered beacons", http.StatusInternalServerError)
		return
	}

	if filter := strings.TrimSpace(r.URL.Query().Get("scanner_id")); filter != "" {
		filtered := beacons[:0]
		for _, b := range beacons {
			if strings.EqualFold(b.ScannerID, filter) {
				filtered = append(filtered, b)
			}
		}
		beacons = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Discovered []store.DiscoveredBeacon `json:"discovered"`
	}{Discovered: beacons})
}

func resolveTCPPort(addr net.Addr) int {
	if addr == nil {
		return 0
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
