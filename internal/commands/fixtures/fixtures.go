// Package fixtures holds test doubles for command registration.
package fixtures

import (
	command "github.com/goliatone/go-command"
)

// RecordingRegistry captures registered command handlers.
type RecordingRegistry struct {
	Handlers []any
	// Err, when set, is returned by RegisterCommand.
	Err error
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// RegisterCommand records handler.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.Err != nil {
		return r.Err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}

// CommanderOf reports whether handler executes messages of type T.
func CommanderOf[T command.Message](handler any) bool {
	_, ok := handler.(command.Commander[T])
	return ok
}
