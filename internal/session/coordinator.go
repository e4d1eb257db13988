package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/beaconmesh/indoor-positioning-server/internal/mapregistry"
	"github.com/beaconmesh/indoor-positioning-server/internal/model"
	"github.com/beaconmesh/indoor-positioning-server/internal/positioning"
	"github.com/beaconmesh/indoor-positioning-server/internal/routegraph"
)

// LogSink is the append-only location-history sink (spec.md §6,
// "external collaborators"). internal/store.Store satisfies it.
type LogSink interface {
	InsertLocationLog(ctx context.Context, l model.LocationLog) error
}

// logBufferSize bounds the asynchronous LocationLog drain queue so a
// slow sink degrades to dropped log entries rather than stalling the
// positioning pipeline (spec.md §5).
const logBufferSize = 256

type sessionEntry struct {
	mu    sync.Mutex
	state model.SessionState
}

// Coordinator is SessionCoordinator (spec.md §4.9): owns the concurrent
// session table, the process-wide default mode, and request dispatch.
type Coordinator struct {
	logger       *slog.Logger
	registry     *mapregistry.Registry
	orchestrator *positioning.Orchestrator
	planner      *routegraph.PathPlanner
	sink         LogSink
	now          func() int64

	defaultMode atomic.Value // model.Mode

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	logCh  chan model.LocationLog
	logWg  sync.WaitGroup
	closed atomic.Bool
}

// New constructs a Coordinator. initialMode seeds the process-wide
// default positioning mode.
func New(logger *slog.Logger, registry *mapregistry.Registry, orchestrator *positioning.Orchestrator, planner *routegraph.PathPlanner, sink LogSink, initialMode model.Mode) *Coordinator {
	c := &Coordinator{
		logger:       logger,
		registry:     registry,
		orchestrator: orchestrator,
		planner:      planner,
		sink:         sink,
		now:          func() int64 { return time.Now().UnixMilli() },
		sessions:     make(map[string]*sessionEntry),
		logCh:        make(chan model.LocationLog, logBufferSize),
	}
	c.defaultMode.Store(initialMode)

	c.logWg.Add(1)
	go c.drainLogs()

	return c
}

// DefaultMode returns the current process-wide default positioning mode.
func (c *Coordinator) DefaultMode() model.Mode {
	return c.defaultMode.Load().(model.Mode)
}

// ConnectedCount returns the number of currently open sessions.
func (c *Coordinator) ConnectedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Open creates a new SessionState and returns its welcome message
// (spec.md §6). The caller owns associating sessionId with its
// transport connection.
func (c *Coordinator) Open() (string, WelcomeMessage) {
	id := uuid.NewString()

	c.mu.Lock()
	c.sessions[id] = &sessionEntry{state: model.SessionState{SessionID: id}}
	c.mu.Unlock()

	return id, WelcomeMessage{
		Type:        "welcome",
		SessionID:   id,
		Message:     "connected",
		DefaultMode: string(c.DefaultMode()),
	}
}

// Close destroys a session's state (spec.md §4.9: "On session close,
// clear the session's active route and reset its SessionState").
func (c *Coordinator) Close(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}

// Shutdown stops the asynchronous LocationLog drain and waits for it
// to finish flushing.
func (c *Coordinator) Shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.logCh)
	c.logWg.Wait()
}

func (c *Coordinator) drainLogs() {
	defer c.logWg.Done()
	ctx := context.Background()
	for entry := range c.logCh {
		if c.sink == nil {
			continue
		}
		if err := c.sink.InsertLocationLog(ctx, entry); err != nil {
			c.logger.Warn("location log append failed", "sessionId", entry.SessionID, "error", err)
		}
	}
}

// Dispatch handles one inbound message for sessionID and returns the
// response payload to encode back to the client. An unknown sessionID
// (for example, one closed concurrently) yields an "unknown session"
// error response.
func (c *Coordinator) Dispatch(ctx context.Context, sessionID string, msg InboundMessage) any {
	entry := c.session(sessionID)
	if entry == nil {
		return ErrorResponse{Type: "error", Status: "error", Message: "unknown session"}
	}

	switch msg.Type {
	case "location":
		return c.handleLocation(entry, msg)
	case "setMode":
		return c.handleSetMode(msg)
	case "ping":
		return c.handlePing()
	default:
		return ErrorResponse{Type: "error", Status: "error", Message: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

func (c *Coordinator) session(sessionID string) *sessionEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[sessionID]
}

func (c *Coordinator) handleLocation(entry *sessionEntry, msg InboundMessage) any {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	mode := c.DefaultMode()
	if strings.TrimSpace(msg.Mode) != "" {
		parsed, ok := model.ParseMode(msg.Mode)
		if !ok {
			return ErrorResponse{Type: "error", Status: "error", Message: fmt.Sprintf("invalid mode %q", msg.Mode)}
		}
		mode = parsed
	}

	readings := make([]model.RssiReading, 0, len(msg.Beacons))
	for _, b := range msg.Beacons {
		readings = append(readings, model.RssiReading{BeaconID: b.ResolvedID(), RSSI: b.RSSI})
	}

	nowMs := c.now()
	result, preSnap := c.orchestrator.CalculateLocation(&entry.state, readings, mode, false, nowMs)
	if result.Error != "" {
		return ErrorResponse{Type: "error", Status: "error", Message: result.Error}
	}

	resp := LocationResponse{
		Type:               "location",
		Status:             "ok",
		X:                  result.Location.X,
		Y:                  result.Location.Y,
		XMeter:             result.Location.X / positioning.PixelsPerMeter,
		YMeter:             result.Location.Y / positioning.PixelsPerMeter,
		Mode:               string(result.Mode),
		Confidence:         result.Confidence,
		NearestBeacon:      result.NearestBeaconID,
		NearestRoom:        result.NearestRoom,
		EstimatedDistanceM: result.EstimatedDistanceM,
	}

	target := strings.TrimSpace(msg.Target)
	zoneName := result.NearestRoom
	if target == "" {
		entry.state.ActiveRoute = nil
		entry.state.ActiveTarget = ""
	} else {
		resp.HasRoute = boolPtr(false)
		if c.planner != nil {
			path, err := c.planner.Plan(preSnap, target)
			switch {
			case err != nil:
				resp.RouteError = err.Error()
			case len(path) >= 2:
				entry.state.ActiveRoute = path
				entry.state.RouteSetAtMs = nowMs
				entry.state.ActiveTarget = target
				resp.HasRoute = boolPtr(true)
				resp.Path = toPathPoints(path)
			}
		}
	}

	c.enqueueLog(model.LocationLog{
		SessionID:         entry.state.SessionID,
		X:                 result.Location.X,
		Y:                 result.Location.Y,
		ZoneName:          zoneName,
		TargetDestination: target,
		TimestampMs:       nowMs,
	})

	return resp
}

func (c *Coordinator) handleSetMode(msg InboundMessage) any {
	mode, ok := model.ParseMode(msg.Mode)
	if !ok {
		return ErrorResponse{Type: "error", Status: "error", Message: fmt.Sprintf("invalid mode %q", msg.Mode)}
	}
	c.defaultMode.Store(mode)
	return ModeChangedResponse{Type: "modeChanged", Status: "ok", Mode: string(mode), Message: "default mode updated"}
}

func (c *Coordinator) handlePing() any {
	return PongResponse{Type: "pong", Timestamp: c.now(), ConnectedUsers: c.ConnectedCount()}
}

func (c *Coordinator) enqueueLog(l model.LocationLog) {
	if c.closed.Load() {
		return
	}
	select {
	case c.logCh <- l:
	default:
		c.logger.Warn("location log buffer full, dropping entry", "sessionId", l.SessionID)
	}
}

func toPathPoints(pts []model.Point) []PathPoint {
	out := make([]PathPoint, len(pts))
	for i, p := range pts {
		out[i] = PathPoint{X: p.X, Y: p.Y}
	}
	return out
}
