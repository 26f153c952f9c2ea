// Package logx is the logging facade used across the service. Callers depend
// on Logger and typed fields only; the zap backend lives in adapter.go.
package logx

import "time"

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is one key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Any wraps a value of any type.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time.Time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a time.Duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err uses the "err" key so failures are searchable the same way everywhere.
func Err(err error) Field {
	return Field{Key: "err", Value: err}
}

// DeliveryID tags an entry with the delivery it concerns.
func DeliveryID(id string) Field {
	return Field{Key: "delivery_id", Value: id}
}

// EventID tags an entry with an outbox or telemetry event id.
func EventID(id string) Field {
	return Field{Key: "event_id", Value: id}
}
