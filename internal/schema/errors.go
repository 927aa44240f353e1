package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownNodeType   = errors.New("schema: unknown node type")
	ErrUnknownMarkType   = errors.New("schema: unknown mark type")
	ErrContentNotAllowed = errors.New("schema: content not allowed")
	ErrAttrRequired      = errors.New("schema: missing required attribute")
	ErrAttrType          = errors.New("schema: attribute type mismatch")
	ErrInvalidEnvelope   = errors.New("schema: invalid document envelope")
	ErrEmptyText         = errors.New("schema: empty text nodes are not allowed")
	ErrDuplicateType     = errors.New("schema: type already registered")
	ErrInvalidDefinition = errors.New("schema: invalid type definition")
)

// ConstructionError reports why a node could not be built, with the
// location of the offending node inside the document.
type ConstructionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConstructionError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	if e.Reason == "" {
		return fmt.Sprintf("%v at %s", e.Err, path)
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, path, e.Reason)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func constructionError(path []string, err error, format string, args ...any) error {
	return &ConstructionError{
		Path:   "/" + strings.Join(path, "/"),
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// EnvelopeIssue is one JSON Schema violation of the persisted format.
type EnvelopeIssue struct {
	Location string
	Message  string
}

// EnvelopeError collects envelope violations.
type EnvelopeError struct {
	Issues []EnvelopeIssue
	Cause  error
}

func (e *EnvelopeError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrInvalidEnvelope.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return ErrInvalidEnvelope.Error() + ": " + strings.Join(parts, "; ")
}

func (e *EnvelopeError) Unwrap() error { return ErrInvalidEnvelope }
