// Package audit records every EPP transaction the gateway performs. Events
// are persisted to the transaction log and streamed to downstream consumers.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies transactions by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers commands that change registry state. These are
	// persisted synchronously to the transaction log.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers commands the registry refused on authorization
	// grounds (result codes 2200-2202).
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers queries (check, info, poll). These can be
	// sampled before streaming.
	CategoryOperations EventCategory = "operations"
)

// Outcome of a transaction.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure" // the registry answered with a 2xxx code
	OutcomeError   Outcome = "error"   // no answer: transport, codec or pool failure
)

// Event is one EPP transaction as seen by the gateway.
type Event struct {
	ID         uuid.UUID
	Category   EventCategory
	Timestamp  time.Time
	Operator   string // API operator that issued the request
	Command    string // e.g. "domain:create", "poll:ack"
	ObjectType string
	ObjectID   string
	ClTRID     string
	SvTRID     string
	ResultCode int
	Message    string
	Outcome    Outcome
	RequestID  string
	ClientIP   string
	Duration   time.Duration
}

var transforms = map[string]bool{
	"create":   true,
	"delete":   true,
	"renew":    true,
	"transfer": true,
	"update":   true,
	"restore":  true,
}

// CategoryFor classifies a transaction from its verb and result code.
func CategoryFor(verb string, code int) EventCategory {
	if code >= 2200 && code <= 2202 {
		return CategorySecurity
	}
	if transforms[verb] {
		return CategoryCompliance
	}
	return CategoryOperations
}

// Store persists and queries transactions.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByObject(ctx context.Context, objectType, objectID string, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher accepts transactions for recording.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Prepare fills the ID, timestamp and category when unset.
func Prepare(event Event, verb string) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = CategoryFor(verb, event.ResultCode)
	}
	return event
}
