// Command client-sim simulates a phone client: it connects to the
// positioning websocket, sends periodic "location" requests built
// from a fixed beacon reference file and a simulated walking path,
// and logs every response.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type beaconRecord struct {
	MAC string  `json:"mac"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

type beaconFile struct {
	Beacons []beaconRecord `json:"beacons"`
}

type inboundBeacon struct {
	BeaconID string `json:"beaconId"`
	RSSI     int    `json:"rssi"`
}

type locationRequest struct {
	Type    string          `json:"type"`
	Beacons []inboundBeacon `json:"beacons"`
	Mode    string          `json:"mode,omitempty"`
	Target  string          `json:"target,omitempty"`
}

func main() {
	serverAddr := flag.String("server", "localhost:8080", "host:port of the positioning server")
	beaconsPath := flag.String("beacons", "data/reference/beacons.json", "JSON beacon reference file to walk near")
	mode := flag.String("mode", "", "positioning mode override (PROXIMITY, WEIGHTED, TRILATERATION, HYBRID)")
	target := flag.String("target", "", "destination alias to request a route toward")
	interval := flag.Duration("interval", 1*time.Second, "interval between location requests")
	startX := flag.Float64("start-x", 0, "starting X coordinate; if start-x and start-y are both 0, the first beacon's location is used")
	startY := flag.Float64("start-y", 0, "starting Y coordinate; if start-x and start-y are both 0, the first beacon's location is used")
	stepPx := flag.Float64("step", 20, "approximate pixel movement per interval")

	flag.Parse()

	raw, err := os.ReadFile(*beaconsPath)
	if err != nil {
		log.Fatalf("failed to read beacon file: %v", err)
	}
	var file beaconFile
	if err := json.Unmarshal(raw, &file); err != nil {
		log.Fatalf("failed to parse beacon file: %v", err)
	}
	if len(file.Beacons) == 0 {
		log.Fatal("no beacons in reference file")
	}

	x, y := *startX, *startY
	if x == 0 && y == 0 {
		x, y = file.Beacons[0].X, file.Beacons[0].Y
	}

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v", err)
				return
			}
			log.Printf("recv: %s", data)
		}
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	rand.Seed(time.Now().UnixNano())

	send := func() {
		x += rand.NormFloat64() * (*stepPx / 2)
		y += rand.NormFloat64() * (*stepPx / 2)

		beacons := make([]inboundBeacon, 0, len(file.Beacons))
		for _, b := range file.Beacons {
			dx, dy := b.X-x, b.Y-y
			dist := dx*dx + dy*dy
			rssi := -40 - int(dist/2000)
			beacons = append(beacons, inboundBeacon{BeaconID: b.MAC, RSSI: rssi})
		}

		req := locationRequest{Type: "location", Beacons: beacons, Mode: *mode, Target: *target}
		data, err := json.Marshal(req)
		if err != nil {
			log.Printf("encode failed: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("write failed: %v", err)
		}
	}

	send()

	for {
		select {
		case <-done:
			return
		case <-sigCtx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			send()
		}
	}
}
