package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Observation is a decoded inventory scan ready to persist.
type Observation struct {
	ScannerID  string
	BeaconMAC  string
	RSSI       int
	TxPower    *int
	LastSeenMs int64
}

// Sink is the destination for decoded scan reports.
type Sink interface {
	UpsertDiscoveredBeacon(ctx context.Context, o Observation) error
}

type inventoryPayload struct {
	ScannerID  string `json:"scanner_id"`
	BeaconMAC  string `json:"beacon_mac"`
	RSSI       int    `json:"rssi"`
	TxPower    *int   `json:"tx_power"`
	Timestamp  string `json:"timestamp"`
}

// Ingestor decodes inventory scan reports published under
// "scanners/<id>/inventory" and persists them to a Sink.
type Ingestor struct {
	sink Sink
}

// NewIngestor builds an Ingestor writing to sink.
func NewIngestor(sink Sink) *Ingestor {
	return &Ingestor{sink: sink}
}

// Handle decodes r and upserts it into the sink. Reports whose topic
// does not contain "/inventory" are ignored.
func (in *Ingestor) Handle(ctx context.Context, r ScanReport) error {
	if !strings.Contains(r.Topic, "/inventory") {
		return nil
	}

	var payload inventoryPayload
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return fmt.Errorf("discovery: decode inventory payload: %w", err)
	}

	scannerID := payload.ScannerID
	if scannerID == "" {
		scannerID = r.ScannerID
	}
	if scannerID == "" || payload.BeaconMAC == "" {
		return fmt.Errorf("discovery: inventory payload missing scanner_id or beacon_mac")
	}

	lastSeen := time.Now().UnixMilli()
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			lastSeen = ts.UnixMilli()
		}
	}

	return in.sink.UpsertDiscoveredBeacon(ctx, Observation{
		ScannerID:  scannerID,
		BeaconMAC:  strings.ToUpper(payload.BeaconMAC),
		RSSI:       payload.RSSI,
		TxPower:    payload.TxPower,
		LastSeenMs: lastSeen,
	})
}
