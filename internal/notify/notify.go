// Package notify routes complaint events to the responsible department.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
)

// Event names the complaint transition being announced.
type Event string

const (
	EventSubmitted     Event = "submitted"
	EventStatusChanged Event = "status_changed"
)

// Notifier announces complaint events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event, complaint models.Complaint) error
}

// Nop discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event, models.Complaint) error { return nil }

// Publisher is the transport used by MQTTNotifier.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier publishes the complaint JSON on <prefix>/<department-slug>/<event>.
type MQTTNotifier struct {
	publisher Publisher
	prefix    string
	qos       byte
	logger    *zap.Logger
}

// NewMQTTNotifier constructs a notifier publishing through publisher.
func NewMQTTNotifier(publisher Publisher, prefix string, qos byte, logger *zap.Logger) *MQTTNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTNotifier{publisher: publisher, prefix: strings.Trim(prefix, "/"), qos: qos, logger: logger}
}

// Notify implements Notifier.
func (n *MQTTNotifier) Notify(ctx context.Context, event Event, complaint models.Complaint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(complaint)
	if err != nil {
		return fmt.Errorf("encode complaint %s: %w", complaint.ID, err)
	}
	topic := Topic(n.prefix, complaint.Department, event)
	if err := n.publisher.Publish(topic, n.qos, false, payload); err != nil {
		return err
	}
	n.logger.Debug("complaint event published", zap.String("topic", topic), zap.String("complaint_id", complaint.ID))
	return nil
}

// Topic builds the routing topic for department and event.
func Topic(prefix string, department models.Department, event Event) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	return strings.Join(append(parts, Slug(string(department)), string(event)), "/")
}

// Slug lower-cases value and joins its alphanumeric runs with single dashes,
// so "Water & Sanitation" becomes "water-sanitation".
func Slug(value string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "unassigned"
	}
	return b.String()
}
