package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/flux"
)

// State is the JSON document published for each flux event.
type State struct {
	Event       string    `json:"event"`
	Temperature int       `json:"temperature"`
	Brightness  float64   `json:"brightness"`
	Target      int       `json:"target"`
	Phase       string    `json:"phase"`
	RunID       string    `json:"run_id"`
	Time        time.Time `json:"time"`
}

// Notifier publishes flux events. It implements flux.Listener.
type Notifier struct {
	pub    Publisher
	topic  string
	qos    byte
	retain bool
	runID  string
}

// NewNotifier creates a notifier publishing to topic.
func NewNotifier(pub Publisher, topic string, qos byte, retain bool, runID string) *Notifier {
	return &Notifier{pub: pub, topic: topic, qos: qos, retain: retain, runID: runID}
}

// OnFluxEvent publishes the event. Failures are logged only.
func (n *Notifier) OnFluxEvent(_ context.Context, ev flux.Event) {
	payload, err := json.Marshal(State{
		Event:       string(ev.Kind),
		Temperature: ev.Setting.Temperature,
		Brightness:  ev.Setting.Brightness,
		Target:      ev.Target,
		Phase:       string(ev.Phase),
		RunID:       n.runID,
		Time:        ev.Time.UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode flux state")
		return
	}

	if err := n.pub.Publish(n.topic, n.qos, n.retain, payload); err != nil {
		log.Warn().Err(err).Str("topic", n.topic).Msg("Failed to publish flux state")
	}
}
