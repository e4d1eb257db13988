// Command beacon-scanner-sim simulates a fixed BLE scanner performing a
// site survey: it walks a beacon reference file and publishes
// inventory scan reports over MQTT to the discovery broker, the same
// path a real scanner (e.g. a Raspberry Pi running a BLE sniffer)
// would use during calibration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type beaconRecord struct {
	MAC string `json:"mac"`
}

type beaconFile struct {
	Beacons []beaconRecord `json:"beacons"`
}

type inventoryPayload struct {
	ScannerID string `json:"scanner_id"`
	BeaconMAC string `json:"beacon_mac"`
	RSSI      int    `json:"rssi"`
	TxPower   *int   `json:"tx_power"`
	Timestamp string `json:"timestamp"`
}

func main() {
	brokerAddr := flag.String("broker", "tcp://localhost:1883", "discovery broker address, e.g. tcp://localhost:1883")
	beaconsPath := flag.String("beacons", "data/reference/beacons.json", "JSON beacon reference file to survey")
	scannerID := flag.String("scanner-id", "scanner-sim-1", "Scanner identifier reported in each inventory scan")
	interval := flag.Duration("interval", 3*time.Second, "Interval between survey passes")
	txPower := flag.Int("tx-power", -59, "Reported tx_power for every scan")
	rssiJitter := flag.Float64("rssi-jitter", 3.0, "Gaussian noise applied to the simulated RSSI")

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

	rand.Seed(time.Now().UnixNano())

	clientID := fmt.Sprintf("%s-%d", *scannerID, time.Now().UnixNano())
	opts := mqtt.NewClientOptions().AddBroker(*brokerAddr).SetClientID(clientID)
	opts = opts.SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to discovery broker: %v", token.Error())
	}
	log.Printf("connected to discovery broker %s as %s", *brokerAddr, clientID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	publish := func() {
		for _, b := range file.Beacons {
			rssi := -55 + rand.NormFloat64()*(*rssiJitter)
			payload := inventoryPayload{
				ScannerID: *scannerID,
				BeaconMAC: b.MAC,
				RSSI:      int(rssi),
				TxPower:   txPower,
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			}

			data, err := json.Marshal(payload)
			if err != nil {
				log.Printf("failed to encode payload: %v", err)
				continue
			}

			topic := fmt.Sprintf("scanners/%s/inventory", *scannerID)
			token := client.Publish(topic, 0, false, data)
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("publish error: %v", err)
				continue
			}
			log.Printf("published %s beacon=%s rssi=%d", topic, b.MAC, payload.RSSI)
		}
	}

	publish()

	for {
		select {
		case <-ctx.Done():
			log.Print("received shutdown signal, disconnecting")
			client.Disconnect(250)
			return
		case <-ticker.C:
			publish()
		}
	}
}
