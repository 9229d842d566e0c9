package application

import (
	"fmt"
	"strings"

	"bonsai/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts field names to space-separated words
// for more readable error messages (e.g., "viewportID" -> "viewport ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"viewportID": "viewport ID",
		"senderID":   "sender viewport ID",
		"targetID":   "target node ID",
		"url":        "URL",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateEvent checks that the fields required by the event kind are present.
// Requests may omit the viewport; the active viewport is used instead.
func ValidateEvent(ev domain.Event) error {
	switch ev.Kind {
	case domain.EventSpawned:
		if err := ValidateRequired("senderID", string(ev.Sender)); err != nil {
			return err
		}
		if err := ValidateRequired("viewportID", string(ev.Viewport)); err != nil {
			return err
		}
		return ValidateRequired("url", ev.URL)

	case domain.EventDidNavigate, domain.EventWillNavigate,
		domain.EventWillNavigateSameDocument, domain.EventForwardConfirmed:
		if err := ValidateRequired("viewportID", string(ev.Viewport)); err != nil {
			return err
		}
		return ValidateRequired("url", ev.URL)

	case domain.EventBackConfirmed, domain.EventViewportClosed,
		domain.EventActiveChanged, domain.EventCancelRequest:
		return ValidateRequired("viewportID", string(ev.Viewport))

	case domain.EventRequestBack, domain.EventRequestForward, domain.EventForgetNode:
		return ValidateRequired("targetID", string(ev.Target))

	default:
		return &EventError{Kind: ev.Kind, Viewport: ev.Viewport, Reason: "unknown event kind", Err: ErrUnknownEvent}
	}
}
