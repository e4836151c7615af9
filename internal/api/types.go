package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Field is one name/value pair of a submitted form.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SubmitRequest describes a form submission sent to the daemon. Body, when
// set, is used verbatim as the URL-encoded payload; otherwise Fields are
// encoded in order. DirectSend overrides the daemon default for this
// submission only.
type SubmitRequest struct {
	Action     string  `json:"action"`
	Method     string  `json:"method,omitempty"`
	Body       string  `json:"body,omitempty"`
	Fields     []Field `json:"fields,omitempty"`
	PageURL    string  `json:"pageUrl,omitempty"`
	DirectSend *bool   `json:"directSend,omitempty"`
}

// SubmitResponse reports how the daemon handled a submission.
type SubmitResponse struct {
	Outcome string `json:"outcome"`
	Pending int    `json:"pending"`
}

// SyncResponse reports the result of a replay pass.
type SyncResponse struct {
	Attempted bool `json:"attempted"`
	Pending   int  `json:"pending"`
}

// QueueEntry describes a queued submission in a transport-friendly format.
type QueueEntry struct {
	ID       string `json:"id" yaml:"id"`
	Action   string `json:"action" yaml:"action"`
	Method   string `json:"method" yaml:"method"`
	Body     string `json:"body" yaml:"body"`
	QueuedAt string `json:"queuedAt,omitempty" yaml:"queuedAt,omitempty"`
}

// QueueListResponse wraps the queued entries.
type QueueListResponse struct {
	Entries []QueueEntry `json:"entries" yaml:"entries"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	Online       bool   `json:"online"`
	Pending      int    `json:"pending"`
	QueueKey     string `json:"queueKey"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	Netlink      bool   `json:"netlink"`
	LastSync     string `json:"lastSync,omitempty"`
	LastError    string `json:"lastError,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
