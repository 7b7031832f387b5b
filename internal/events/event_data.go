package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// InvoiceCreatedData contains data for InvoiceCreated events
type InvoiceCreatedData struct {
	InvoiceID  string `json:"invoice_id"`
	Number     string `json:"number"`
	CustomerID string `json:"customer_id"`
	Total      string `json:"total"`
}

// EventType returns the event type for InvoiceCreatedData
func (d *InvoiceCreatedData) EventType() EventType {
	return InvoiceCreated
}

// InvoiceUpdatedData contains data for InvoiceUpdated events (draft edits)
type InvoiceUpdatedData struct {
	InvoiceID string `json:"invoice_id"`
	Total     string `json:"total"`
}

// EventType returns the event type for InvoiceUpdatedData
func (d *InvoiceUpdatedData) EventType() EventType {
	return InvoiceUpdated
}

// InvoiceStatusChangedData contains data for InvoiceStatusChanged events
type InvoiceStatusChangedData struct {
	InvoiceID string `json:"invoice_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// EventType returns the event type for InvoiceStatusChangedData
func (d *InvoiceStatusChangedData) EventType() EventType {
	return InvoiceStatusChanged
}

// InvoicePaidData contains data for InvoicePaid events
type InvoicePaidData struct {
	InvoiceID     string `json:"invoice_id"`
	TotalPaid     string `json:"total_paid"`
	PaidDate      string `json:"paid_date"`
	PaymentMethod string `json:"payment_method"`
}

// EventType returns the event type for InvoicePaidData
func (d *InvoicePaidData) EventType() EventType {
	return InvoicePaid
}

// InvoiceOverdueData contains data for InvoiceOverdue events
type InvoiceOverdueData struct {
	InvoiceID        string `json:"invoice_id"`
	Number           string `json:"number"`
	DueDate          string `json:"due_date"`
	RemainingBalance string `json:"remaining_balance"`
	DaysOverdue      int    `json:"days_overdue"`
}

// EventType returns the event type for InvoiceOverdueData
func (d *InvoiceOverdueData) EventType() EventType {
	return InvoiceOverdue
}

// PaymentRecordedData contains data for PaymentRecorded events
type PaymentRecordedData struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Status    string `json:"status"`
}

// EventType returns the event type for PaymentRecordedData
func (d *PaymentRecordedData) EventType() EventType {
	return PaymentRecorded
}

// PaymentStatusChangedData contains data for PaymentStatusChanged events
type PaymentStatusChangedData struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// EventType returns the event type for PaymentStatusChangedData
func (d *PaymentStatusChangedData) EventType() EventType {
	return PaymentStatusChanged
}

// BalanceClampedData is emitted when payments exceed an invoice total, which
// only happens if something upstream bypassed the overpayment check.
type BalanceClampedData struct {
	InvoiceID string `json:"invoice_id"`
	Total     string `json:"total"`
	TotalPaid string `json:"total_paid"`
}

// EventType returns the event type for BalanceClampedData
func (d *BalanceClampedData) EventType() EventType {
	return BalanceClamped
}

// ExportArchivedData contains data for ExportArchived events
type ExportArchivedData struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Rows      int    `json:"rows"`
	SizeBytes int    `json:"size_bytes"`
}

// EventType returns the event type for ExportArchivedData
func (d *ExportArchivedData) EventType() EventType {
	return ExportArchived
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// ErrorData contains data for ErrorOccurred events
type ErrorData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorData
func (d *ErrorData) EventType() EventType {
	return ErrorOccurred
}
