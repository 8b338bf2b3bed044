package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/hemobench/mockloop.go/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/mockloop/"
	rawJSON bool
)

func init() {
	if val := os.Getenv("MOCKLOOP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, path is the topic prefix.")
	flag.BoolVar(&rawJSON, "json", rawJSON, "Print raw JSON payloads.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", func(topic string, payload []byte) {
		if topic != mqtt.TopicTelemetry || rawJSON {
			log.Printf("%s: %s", topic, payload)
			return
		}
		var p mqtt.TelemetryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Printf("%s: bad payload: %v", topic, err)
			return
		}
		rep, err := p.Report()
		if err != nil {
			log.Printf("%s: %v", topic, err)
			return
		}
		log.Printf("%s [%s]: %s", topic, p.RigID, rep)
	})
	<-(chan struct{})(nil)
}
