// Package events records ledger events: every event is logged as structured
// JSON and kept in a short in-memory history for the API.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	InvoiceCreated       EventType = "INVOICE_CREATED"
	InvoiceUpdated       EventType = "INVOICE_UPDATED"
	InvoiceStatusChanged EventType = "INVOICE_STATUS_CHANGED"
	InvoicePaid          EventType = "INVOICE_PAID"
	InvoiceOverdue       EventType = "INVOICE_OVERDUE"
	PaymentRecorded      EventType = "PAYMENT_RECORDED"
	PaymentStatusChanged EventType = "PAYMENT_STATUS_CHANGED"
	BalanceClamped       EventType = "BALANCE_CLAMPED"
	ExportArchived       EventType = "EXPORT_ARCHIVED"
	SettingsChanged      EventType = "SETTINGS_CHANGED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// DefaultHistorySize is the number of events kept by NewManager.
const DefaultHistorySize = 200

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// Manager handles event emission and logging
type Manager struct {
	log         zerolog.Logger
	nowFn       func() time.Time
	mu          sync.RWMutex
	history     []Event
	historySize int
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log:         log.With().Str("service", "events").Logger(),
		nowFn:       time.Now,
		historySize: DefaultHistorySize,
	}
}

// Emit emits an event
func (m *Manager) Emit(module string, data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: m.nowFn().UTC(),
		Module:    module,
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		m.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to encode event")
		eventJSON = []byte(`{}`)
	}
	m.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	m.mu.Lock()
	m.history = append(m.history, event)
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
	m.mu.Unlock()
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(module, &ErrorData{Error: err.Error(), Context: context})
}

// Recent returns up to limit most recent events, newest first.
func (m *Manager) Recent(limit int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}

	out := make([]Event, 0, limit)
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out
}
