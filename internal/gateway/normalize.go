package gateway

import (
	"fmt"
	"net/url"
	"strings"

	"sonacove/internal/bridge"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/overlay"
)

// NormalizeToggle folds the three toggle-annotation call shapes into one
// overlay.Request:
//
//	object-first  {enabled, roomUrl, collabDetails, collabServerUrl, annotationsUrl, isWindowSharing}
//	boolean-first enabled, roomUrl, collabDetails, collabServerUrl[, annotationsUrl]
//	string-first  roomUrl, collabDetails, collabServerUrl
//
// A message with no arguments (or a null first argument) is an empty request.
func NormalizeToggle(msg bridge.Message) (overlay.Request, error) {
	var req overlay.Request

	switch msg.Kind(0) {
	case "", "null":
		return req, nil

	case "object":
		if err := msg.Decode(0, &req); err != nil {
			return overlay.Request{}, toggleShapeError("object", err)
		}
		return req, nil

	case "bool":
		enabled, _ := msg.Bool(0)
		req.Enabled = overlay.Bool(enabled)
		if err := decodePositional(msg, 1, &req); err != nil {
			return overlay.Request{}, toggleShapeError("boolean-first", err)
		}
		if annotations, ok := msg.String(4); ok {
			req.AnnotationsURL = annotations
		}
		return req, nil

	case "string":
		if err := decodePositional(msg, 0, &req); err != nil {
			return overlay.Request{}, toggleShapeError("string-first", err)
		}
		return req, nil

	default:
		return overlay.Request{}, errors.HandleValidationError("normalize_toggle", "args[0]", msg.Kind(0), "unsupported call shape")
	}
}

// decodePositional reads roomUrl, collabDetails and collabServerUrl starting at index from
func decodePositional(msg bridge.Message, from int, req *overlay.Request) error {
	if room, ok := msg.String(from); ok {
		req.RoomURL = room
	} else if k := msg.Kind(from); k != "" && k != "null" {
		return fmt.Errorf("roomUrl must be a string, got %s", k)
	}

	switch msg.Kind(from + 1) {
	case "", "null":
	case "object":
		var collab overlay.CollabDetails
		if err := msg.Decode(from+1, &collab); err != nil {
			return err
		}
		req.Collab = &collab
	default:
		return fmt.Errorf("collabDetails must be an object, got %s", msg.Kind(from+1))
	}

	if server, ok := msg.String(from + 2); ok {
		req.CollabServerURL = server
	}
	return nil
}

func toggleShapeError(shape string, err error) error {
	return errors.NewShellErrorWithContext("normalize_toggle", err, errors.ErrCodeValidation, map[string]string{
		"shape": shape,
	})
}

// CheckExternalURL allows only absolute http and https URLs with a host
func CheckExternalURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.HandleValidationError("open_external", "url", raw, "unparseable")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", errors.HandlePermissionError("open_external", schemeOf(u.Scheme), "open")
	}
	if u.Host == "" {
		return "", errors.HandleValidationError("open_external", "url", raw, "missing host")
	}
	return trimmed, nil
}

func schemeOf(s string) string {
	if s == "" {
		return "(none):"
	}
	return strings.ToLower(s) + ":"
}
