package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBackend     = "backend"
	FieldPath        = "path"
	FieldOwnerID     = "owner_id"
	FieldHandle      = "handle"
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldPeriod      = "period"
	FieldEventID     = "event_id"
	FieldEventType   = "event_type"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentCLI        = "cli"
	ComponentStorage    = "storage"
	ComponentRepository = "repository"
	ComponentReport     = "report"
	ComponentAMQP       = "amqp"
	ComponentEvents     = "events"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpDelete   = "delete"
	OpList     = "list"
	OpReport   = "report"
	OpRegister = "register"
	OpLogin    = "login"
	OpSync     = "sync"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithOwner adds the owner id, skipping the zero owner.
func (f LogFields) WithOwner(id int64) LogFields {
	if id != 0 {
		f[FieldOwnerID] = id
	}
	return f
}

// WithTransaction adds the fields describing one ledger entry.
func (f LogFields) WithTransaction(handle, date string, amount float64, desc string) LogFields {
	if handle != "" {
		f[FieldHandle] = handle
	}
	if date != "" {
		f[FieldDate] = date
	}
	f[FieldAmount] = amount
	if desc != "" {
		f[FieldDescription] = desc
	}
	return f
}

// WithEvent adds change-event identification fields.
func (f LogFields) WithEvent(id, typ string) LogFields {
	f[FieldEventID] = id
	f[FieldEventType] = typ
	return f
}

// ToSlice converts LogFields to a key-sorted slice for slog
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
