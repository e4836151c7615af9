package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"offlineform/internal/logging"
)

// Record is one parsed line of the JSON log file.
type Record struct {
	Time      string
	Level     string
	Message   string
	Component string
	EventType string
	Source    string
	Fields    map[string]any
}

// ParseRecord decodes one JSON log line. ok is false for blank or non-JSON
// lines.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return Record{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}

	rec := Record{
		Time:      takeString(raw, "ts"),
		Level:     strings.ToLower(takeString(raw, "level")),
		Message:   takeString(raw, "msg"),
		Component: takeString(raw, logging.FieldComponent),
		EventType: takeString(raw, logging.FieldEventType),
		Source:    takeString(raw, "source"),
		Fields:    raw,
	}
	return rec, true
}

func takeString(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok {
		return ""
	}
	delete(raw, key)
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// Filter selects records by minimum level and event type.
type Filter struct {
	MinLevel  string
	EventType string
	Component string
}

// Match reports whether rec passes the filter. Empty criteria match all.
func (f Filter) Match(rec Record) bool {
	if f.MinLevel != "" && levelRank(rec.Level) < levelRank(f.MinLevel) {
		return false
	}
	if f.EventType != "" && !strings.EqualFold(rec.EventType, f.EventType) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	return true
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}

// Format renders rec as "TIME LEVEL component: message key=value".
func (r Record) Format() string {
	var b strings.Builder
	b.WriteString(r.Time)
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(r.Level))
	b.WriteByte(' ')
	if r.Component != "" {
		b.WriteString(r.Component)
		b.WriteString(": ")
	}
	b.WriteString(r.Message)
	if r.Source != "" {
		b.WriteString(" [")
		b.WriteString(r.Source)
		b.WriteByte(']')
	}

	if r.EventType != "" {
		writePair(&b, logging.FieldEventType, r.EventType)
	}
	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writePair(&b, key, r.Fields[key])
	}
	return b.String()
}

func writePair(b *strings.Builder, key string, value any) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatField(value))
}

func formatField(value any) string {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		s = "null"
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " =\"\t") {
		return strconv.Quote(s)
	}
	return s
}
