package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEntryID identifies a queued form submission.
	FieldEntryID = "entry_id"
	// FieldAction is the target URL of a form submission.
	FieldAction = "action"
	// FieldMethod is the HTTP verb of a form submission.
	FieldMethod = "method"
	// FieldQueueLength is the number of entries in the persisted queue.
	FieldQueueLength = "queue_length"
	// FieldEventType is a machine-friendly name for the logged event.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step when something goes wrong.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
