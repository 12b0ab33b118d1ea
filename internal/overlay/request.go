package overlay

import (
	"net/url"

	"sonacove/internal/infrastructure/errors"
)

// CollabDetails identifies a whiteboard room
type CollabDetails struct {
	RoomID  string `json:"roomId"`
	RoomKey string `json:"roomKey"`
}

// Request is the normalized payload of a toggle-annotation message
type Request struct {
	Enabled         *bool          `json:"enabled,omitempty"`
	RoomURL         string         `json:"roomUrl,omitempty"`
	Collab          *CollabDetails `json:"collabDetails,omitempty"`
	CollabServerURL string         `json:"collabServerUrl,omitempty"`
	AnnotationsURL  string         `json:"annotationsUrl,omitempty"`
	IsWindowSharing bool           `json:"isWindowSharing,omitempty"`
}

// Bool returns a pointer to v, for building requests
func Bool(v bool) *bool { return &v }

func (r Request) explicitlyEnabled() bool  { return r.Enabled != nil && *r.Enabled }
func (r Request) explicitlyDisabled() bool { return r.Enabled != nil && !*r.Enabled }

// Validate requires either an annotations URL or complete collab details
func (r Request) Validate() error {
	if r.AnnotationsURL != "" {
		return nil
	}
	if r.Collab == nil || r.Collab.RoomID == "" || r.Collab.RoomKey == "" {
		return errors.HandleValidationError("validate_overlay_request", "collabDetails", "", "annotationsUrl or roomId and roomKey required")
	}
	return nil
}

// TargetURL returns the URL the overlay loads: the annotations URL as given,
// otherwise the room URL switched into standalone whiteboard mode
func (r Request) TargetURL() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.AnnotationsURL != "" {
		return r.AnnotationsURL, nil
	}

	u, err := url.Parse(r.RoomURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.HandleValidationError("build_overlay_url", "roomUrl", r.RoomURL, "absolute URL required")
	}

	q := u.Query()
	q.Set("standalone", "true")
	q.Set("whiteboardId", r.Collab.RoomID)
	q.Set("whiteboardKey", r.Collab.RoomKey)
	q.Set("whiteboardServer", r.CollabServerURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
