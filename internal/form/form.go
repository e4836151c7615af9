// Package form models an HTML form and its URL-encoded serialization.
package form

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMethod is used when a form declares no method.
const DefaultMethod = "GET"

// Field is one successful control of a form, in document order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Form is the capture-side view of an HTML form element.
type Form struct {
	ID      string
	Action  string
	Method  string
	Fields  []Field
	// Encoded, when non-empty, is used verbatim as the serialized body
	// instead of encoding Fields.
	Encoded string
	Classes []string
}

// Serialize returns the application/x-www-form-urlencoded body of the form.
// Fields keep their order and spaces encode as '+'.
func (f *Form) Serialize() string {
	if f == nil {
		return ""
	}
	if f.Encoded != "" {
		return f.Encoded
	}
	return EncodeFields(f.Fields)
}

// HasClass reports whether the form carries the class name.
func (f *Form) HasClass(name string) bool {
	for _, class := range f.Classes {
		if class == name {
			return true
		}
	}
	return false
}

// AddClass adds name to the form's classes unless already present.
func (f *Form) AddClass(name string) {
	if name == "" || f.HasClass(name) {
		return
	}
	f.Classes = append(f.Classes, name)
}

// RemoveClass drops every occurrence of name from the form's classes.
func (f *Form) RemoveClass(name string) {
	kept := f.Classes[:0]
	for _, class := range f.Classes {
		if class != name {
			kept = append(kept, class)
		}
	}
	f.Classes = kept
}

// NormalizeMethod upper-cases a method attribute and defaults it to GET.
func NormalizeMethod(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return DefaultMethod
	}
	// Casers keep state, so each call gets its own.
	return cases.Upper(language.Und).String(method)
}

// ResolveAction returns the URL a submission targets. An empty action targets
// the page itself; relative actions resolve against the page URL.
func ResolveAction(action, pageURL string) (string, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return pageURL, nil
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("parse action %q: %w", action, err)
	}
	if ref.IsAbs() || pageURL == "" {
		return action, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url %q: %w", pageURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// EncodeFields serializes fields the way jQuery's $.fn.serialize does.
func EncodeFields(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		parts = append(parts, escape(field.Name)+"="+escape(field.Value))
	}
	return strings.Join(parts, "&")
}

// ParseFields splits an encoded body back into ordered fields.
func ParseFields(encoded string) ([]Field, error) {
	var fields []Field
	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		decodedName, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("decode field name %q: %w", name, err)
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("decode field %q: %w", decodedName, err)
		}
		fields = append(fields, Field{Name: decodedName, Value: decodedValue})
	}
	return fields, nil
}

// encodeURIComponent leaves these unescaped; url.QueryEscape does not.
var componentUnescapes = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escape(value string) string {
	return componentUnescapes.Replace(url.QueryEscape(value))
}
