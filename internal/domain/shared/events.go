// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionEnded   EventType = "session.ended"
	EventSessionExpired EventType = "session.expired"

	// Roster events
	EventStudentEnrolled   EventType = "roster.student_enrolled"
	EventStudentUnenrolled EventType = "roster.student_unenrolled"

	// Evaluation events
	EventEvaluationRecorded EventType = "evaluation.recorded"
)

// LoginRoute is the entry point the client is sent to when a session ends.
const LoginRoute = "login"

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionStartedEvent is emitted after a successful login or registration.
type SessionStartedEvent struct {
	BaseEvent
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Payload implements Event interface.
func (e SessionStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email": e.Email,
		"role":  e.Role,
	}
}

// NewSessionStartedEvent creates a new SessionStartedEvent.
func NewSessionStartedEvent(userID, email, role string) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(EventSessionStarted, userID),
		Email:     email,
		Role:      role,
	}
}

// SessionEndedEvent is emitted when the user logs out or the session is
// invalidated by the API. RedirectTo names the route the client must show next.
type SessionEndedEvent struct {
	BaseEvent
	Reason     string `json:"reason"`
	RedirectTo string `json:"redirect_to"`
}

// Payload implements Event interface.
func (e SessionEndedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"reason":      e.Reason,
		"redirect_to": e.RedirectTo,
	}
}

// NewSessionEndedEvent creates an event for an explicit logout.
func NewSessionEndedEvent(userID string) SessionEndedEvent {
	return SessionEndedEvent{
		BaseEvent:  NewBaseEvent(EventSessionEnded, userID),
		Reason:     "logout",
		RedirectTo: LoginRoute,
	}
}

// NewSessionExpiredEvent creates an event for a session rejected by the API.
func NewSessionExpiredEvent(userID, trigger string) SessionEndedEvent {
	return SessionEndedEvent{
		BaseEvent:  NewBaseEvent(EventSessionExpired, userID),
		Reason:     trigger,
		RedirectTo: LoginRoute,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Roster Events
// ═══════════════════════════════════════════════════════════════════════════

// RosterChangedEvent is emitted after a student is added to or removed from a class.
type RosterChangedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
}

// Payload implements Event interface.
func (e RosterChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"class_id":   e.ClassID,
	}
}

// NewStudentEnrolledEvent creates a new enrollment event.
func NewStudentEnrolledEvent(classID, studentID string) RosterChangedEvent {
	return RosterChangedEvent{
		BaseEvent: NewBaseEvent(EventStudentEnrolled, classID),
		StudentID: studentID,
		ClassID:   classID,
	}
}

// NewStudentUnenrolledEvent creates a new unenrollment event.
func NewStudentUnenrolledEvent(classID, studentID string) RosterChangedEvent {
	return RosterChangedEvent{
		BaseEvent: NewBaseEvent(EventStudentUnenrolled, classID),
		StudentID: studentID,
		ClassID:   classID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Evaluation Events
// ═══════════════════════════════════════════════════════════════════════════

// EvaluationRecordedEvent is emitted after an evaluation is created.
type EvaluationRecordedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id,omitempty"`
}

// Payload implements Event interface.
func (e EvaluationRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"class_id":   e.ClassID,
	}
}

// NewEvaluationRecordedEvent creates a new EvaluationRecordedEvent.
func NewEvaluationRecordedEvent(evaluationID, studentID, classID string) EvaluationRecordedEvent {
	return EvaluationRecordedEvent{
		BaseEvent: NewBaseEvent(EventEvaluationRecorded, evaluationID),
		StudentID: studentID,
		ClassID:   classID,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
