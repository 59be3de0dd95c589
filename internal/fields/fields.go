// Package fields implements the declarative validation framework: a Schema is
// an ordered list of named, constrained fields, and an Instance is a raw
// request body bound against it. Validation is fail-fast: the first failing
// field stops the run and its error is returned.
package fields

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field  string
	Kind   string
	Reason string
	Value  any
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %s (%s): %s", e.Field, e.Kind, e.Reason)
	}
	return fmt.Sprintf("field %s (%s): %s (%v)", e.Field, e.Kind, e.Reason, e.Value)
}

// Checker is a typed validation predicate. It never mutates the value it
// checks, it only accepts or reports a reason.
type Checker struct {
	Kind string
	Fn   func(value any) error
}

type Field struct {
	Name     string
	Required bool
	Nullable bool
	Check    Checker
}

// Schema is fixed at definition time and shares no mutable state with
// validation runs, so one Schema value serves all requests.
type Schema struct {
	fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: fields}
}

func (s *Schema) Fields() []Field {
	return s.fields
}

// Instance holds the values of one request bound to a schema. Presence is
// tracked separately from the value itself: a field supplied as null is
// present but nil.
type Instance struct {
	schema  *Schema
	values  map[string]any
	present map[string]bool
}

// Bind materializes raw caller input against the schema. Keys the schema does
// not declare are silently ignored.
func (s *Schema) Bind(raw map[string]any) *Instance {
	inst := &Instance{
		schema:  s,
		values:  make(map[string]any, len(s.fields)),
		present: make(map[string]bool, len(s.fields)),
	}
	for _, f := range s.fields {
		if v, ok := raw[f.Name]; ok {
			inst.values[f.Name] = v
			inst.present[f.Name] = true
		}
	}
	return inst
}

func (i *Instance) Present(name string) bool {
	return i.present[name]
}

func (i *Instance) Value(name string) any {
	return i.values[name]
}

// SuppliedNonNil returns, in schema order, the names of fields that were
// supplied with a non-null value.
func (i *Instance) SuppliedNonNil() []string {
	names := make([]string, 0, len(i.values))
	for _, f := range i.schema.fields {
		if i.present[f.Name] && i.values[f.Name] != nil {
			names = append(names, f.Name)
		}
	}
	return names
}

// Validate checks every field in declaration order and stops at the first
// failure. Single-error propagation is the contract here, not an accident:
// callers get one deterministic message per bad request.
func (i *Instance) Validate() *FieldError {
	for _, f := range i.schema.fields {
		if !i.present[f.Name] {
			if f.Required {
				return &FieldError{Field: f.Name, Kind: f.Check.Kind, Reason: "required field is missing"}
			}
			continue
		}
		value := i.values[f.Name]
		if isEmpty(value) && !f.Nullable {
			return &FieldError{Field: f.Name, Kind: f.Check.Kind, Reason: "non-nullable field is empty", Value: value}
		}
		if f.Check.Fn != nil && !isEmpty(value) {
			if err := f.Check.Fn(value); err != nil {
				return &FieldError{Field: f.Name, Kind: f.Check.Kind, Reason: err.Error(), Value: value}
			}
		}
	}
	return nil
}

// Empty sentinels: null, empty string, empty list. An empty object is not
// considered empty.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

// Integral normalizes the numeric representations a decoded JSON body or a
// test literal can produce.
func Integral(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	}
	return 0, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// DateLayout is the wire format for dates, DD.MM.YYYY.
const DateLayout = "02.01.2006"

var String = Checker{Kind: "string", Fn: func(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("must be a string")
	}
	return nil
}}

var Mapping = Checker{Kind: "arguments", Fn: func(v any) error {
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("must be an object")
	}
	return nil
}}

var Email = Checker{Kind: "email", Fn: func(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}}

var Phone = Checker{Kind: "phone", Fn: func(v any) error {
	s, ok := PhoneString(v)
	if !ok {
		return fmt.Errorf("must be a string or a number")
	}
	if len(s) != 11 || s[0] != '7' || !allDigits(s) {
		return fmt.Errorf("must be 11 digits starting with 7")
	}
	return nil
}}

// PhoneString renders a phone value in its decimal-string form.
func PhoneString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if n, ok := Integral(v); ok {
		return fmt.Sprintf("%d", n), true
	}
	return "", false
}

var Date = Checker{Kind: "date", Fn: checkDate}

func checkDate(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string")
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("incorrect date format, expected DD.MM.YYYY")
	}
	return nil
}

// Birthday is a Date no more than 70 years before now. The clock is injected
// so the bound is testable.
func Birthday(now func() time.Time) Checker {
	return Checker{Kind: "birthday", Fn: func(v any) error {
		if err := checkDate(v); err != nil {
			return err
		}
		bdate, _ := time.Parse(DateLayout, v.(string))
		if now().Year()-bdate.Year() > 70 {
			return fmt.Errorf("birth date is over 70 years ago")
		}
		return nil
	}}
}

var Gender = Checker{Kind: "gender", Fn: func(v any) error {
	n, ok := Integral(v)
	if !ok || n < 0 || n > 2 {
		return fmt.Errorf("must be equal to 0, 1 or 2")
	}
	return nil
}}

var ClientIDs = Checker{Kind: "client_ids", Fn: func(v any) error {
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("must be a list")
	}
	for _, item := range list {
		n, ok := Integral(item)
		if !ok || n < 0 {
			return fmt.Errorf("must contain non-negative integers only")
		}
	}
	return nil
}}
