package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/wormhole-guardian-adapter-go/pkg/types"
)

type EventType string

const (
	EventTypeAdminUpdated         EventType = "AdminUpdated"
	EventTypeAdminUpdateRequested EventType = "AdminUpdateRequested"
	EventTypeAdminDiscarded       EventType = "AdminDiscarded"
	EventTypePeerAdded            EventType = "PeerAdded"
)

// AdminUpdated is emitted when a claim or a single-step update changes the admin.
type AdminUpdated struct {
	OldAdmin types.UniversalAddress `json:"oldAdmin"`
	NewAdmin types.UniversalAddress `json:"newAdmin"`
}

type AdminUpdateRequested struct {
	CurrentAdmin  types.UniversalAddress `json:"currentAdmin"`
	ProposedAdmin types.UniversalAddress `json:"proposedAdmin"`
}

type AdminDiscarded struct {
	Admin types.UniversalAddress `json:"admin"`
}

type PeerAdded struct {
	Chain        uint16                 `json:"chain"`
	PeerContract types.UniversalAddress `json:"peerContract"`
}

// Payload is implemented by every event body.
type Payload interface {
	EventType() EventType
}

func (AdminUpdated) EventType() EventType         { return EventTypeAdminUpdated }
func (AdminUpdateRequested) EventType() EventType { return EventTypeAdminUpdateRequested }
func (AdminDiscarded) EventType() EventType       { return EventTypeAdminDiscarded }
func (PeerAdded) EventType() EventType            { return EventTypePeerAdded }

// Event is the envelope handed to sinks.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps a payload with a fresh id and timestamp.
func NewEvent(p Payload) (*Event, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", p.EventType(), err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      p.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Decode unmarshals the event body into its typed payload.
func (e *Event) Decode() (Payload, error) {
	var p Payload
	switch e.Type {
	case EventTypeAdminUpdated:
		p = &AdminUpdated{}
	case EventTypeAdminUpdateRequested:
		p = &AdminUpdateRequested{}
	case EventTypeAdminDiscarded:
		p = &AdminDiscarded{}
	case EventTypePeerAdded:
		p = &PeerAdded{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type)
	}
	if err := json.Unmarshal(e.Data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", e.Type, err)
	}
	return p, nil
}

// IEventEmitter receives events after the operation that produced them has committed.
type IEventEmitter interface {
	Emit(ctx context.Context, ev *Event) error
}
