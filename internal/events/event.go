// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"nurture_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Nurture Domain Events
// =============================================================================

// InboundMessageReceived is published when a provider callback delivers an
// inbound SMS, whether or not a lead matched the sender.
type InboundMessageReceived struct {
	BaseEvent
	MessageID uuid.UUID  `json:"messageId"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	FromPhone string     `json:"fromPhone"`
}

func (e InboundMessageReceived) EventName() string { return "nurture.message.inbound_received" }

// NurtureTransitionApplied is published after an inbound intent changed a
// lead's nurture state.
type NurtureTransitionApplied struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	Intent    string    `json:"intent"`
	NewStatus string    `json:"newStatus"`
	TaskID    *uuid.UUID `json:"taskId,omitempty"`
}

func (e NurtureTransitionApplied) EventName() string { return "nurture.transition.applied" }

// SweepCompleted is published after a nurture sweep run finishes.
type SweepCompleted struct {
	BaseEvent
	Selected int `json:"selected"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

func (e SweepCompleted) EventName() string { return "nurture.sweep.completed" }

// SweepAborted is published when a sweep could not run at all, typically
// because the due-list read failed. Operators get alerted on this one.
type SweepAborted struct {
	BaseEvent
	Reason string `json:"reason"`
}

func (e SweepAborted) EventName() string { return "nurture.sweep.aborted" }
