// Package faults defines the error taxonomy shared by the manifest builder,
// the segment pipeline and the assemblers.
//
// Every failure carries a Kind (what went wrong) which in turn unwraps to one
// of four categories (how fatal it is and when it can occur). Both levels
// match with errors.Is.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Categories.
var (
	ErrInputValidation = errors.New("input validation error")
	ErrReconciliation  = errors.New("reconciliation error")
	ErrExternalTool    = errors.New("external tool error")
	ErrTimeout         = errors.New("timeout error")
)

// Kind is a specific failure that belongs to exactly one category.
type Kind struct {
	name     string
	category error
}

func (k *Kind) Error() string { return k.name }

// Unwrap exposes the category so errors.Is(err, ErrExternalTool) holds for
// every external tool kind.
func (k *Kind) Unwrap() error { return k.category }

// Category returns the category sentinel.
func (k *Kind) Category() error { return k.category }

func newKind(name string, category error) *Kind {
	return &Kind{name: name, category: category}
}

// Input validation kinds.
var (
	ErrInvalidKeyFormat  = newKind("invalid key format", ErrInputValidation)
	ErrEmptyInput        = newKind("empty input", ErrInputValidation)
	ErrMissingFile       = newKind("missing file", ErrInputValidation)
	ErrSourceNotFound    = newKind("source not found", ErrInputValidation)
	ErrUnsupportedFormat = newKind("unsupported format", ErrInputValidation)
	ErrAudioTooShort     = newKind("audio too short", ErrInputValidation)
	ErrInvalidConfig     = newKind("invalid config", ErrInputValidation)
)

// Reconciliation kinds.
var (
	ErrRoleCountMismatch  = newKind("role count mismatch", ErrReconciliation)
	ErrRoleKeySetMismatch = newKind("role key set mismatch", ErrReconciliation)
)

// External tool kinds.
var (
	ErrSynthesisFailed     = newKind("synthesis failed", ErrExternalTool)
	ErrEncodingFailed      = newKind("encoding failed", ErrExternalTool)
	ErrConcatenationFailed = newKind("concatenation failed", ErrExternalTool)
	ErrSubtitleMergeFailed = newKind("subtitle merge failed", ErrExternalTool)
	ErrRecognitionFailed   = newKind("recognition failed", ErrExternalTool)
	ErrProbeFailed         = newKind("probe failed", ErrExternalTool)
	ErrToolUnavailable     = newKind("tool unavailable", ErrExternalTool)
	ErrPlaybackFailed      = newKind("playback failed", ErrExternalTool)
)

// Timeout kinds.
var (
	ErrRecognitionTimeout = newKind("recognition timeout", ErrTimeout)
)

// Wrap builds an error message that names the operation and the offending
// subject (usually a path) while tagging it with kind for classification.
func Wrap(kind *Kind, operation, subject string, err error) error {
	detail := buildDetail(operation, subject)
	if kind == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", kind, detail, err)
	}
	return fmt.Errorf("%w: %s", kind, detail)
}

// Wrapf is Wrap with a formatted message in place of a cause.
func Wrapf(kind *Kind, operation, subject, format string, args ...any) error {
	return Wrap(kind, operation, subject, fmt.Errorf(format, args...))
}

// KindOf returns the first Kind found in err's chain.
func KindOf(err error) (*Kind, bool) {
	var kind *Kind
	if errors.As(err, &kind) {
		return kind, true
	}
	return nil, false
}

func buildDetail(operation, subject string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
