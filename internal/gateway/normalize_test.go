package gateway

import (
	"testing"

	"sonacove/internal/bridge"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/overlay"
)

func mustMessage(t *testing.T, channel string, args ...any) bridge.Message {
	t.Helper()
	msg, err := bridge.NewMessage(channel, args...)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	return msg
}

func TestNormalizeToggle(t *testing.T) {
	collab := map[string]string{"roomId": "wb1", "roomKey": "key1"}

	tests := []struct {
		name string
		args []any
		want overlay.Request
	}{
		{
			name: "no arguments",
			args: nil,
			want: overlay.Request{},
		},
		{
			name: "object first",
			args: []any{map[string]any{
				"enabled":         true,
				"roomUrl":         "https://meet.example.com/meet/r1",
				"collabDetails":   collab,
				"collabServerUrl": "https://collab.example.com",
				"isWindowSharing": true,
			}},
			want: overlay.Request{
				Enabled:         overlay.Bool(true),
				RoomURL:         "https://meet.example.com/meet/r1",
				Collab:          &overlay.CollabDetails{RoomID: "wb1", RoomKey: "key1"},
				CollabServerURL: "https://collab.example.com",
				IsWindowSharing: true,
			},
		},
		{
			name: "object with only enabled false",
			args: []any{map[string]any{"enabled": false}},
			want: overlay.Request{Enabled: overlay.Bool(false)},
		},
		{
			name: "boolean first",
			args: []any{true, "https://meet.example.com/meet/r1", collab, "https://collab.example.com"},
			want: overlay.Request{
				Enabled:         overlay.Bool(true),
				RoomURL:         "https://meet.example.com/meet/r1",
				Collab:          &overlay.CollabDetails{RoomID: "wb1", RoomKey: "key1"},
				CollabServerURL: "https://collab.example.com",
			},
		},
		{
			name: "boolean first with annotations url",
			args: []any{true, nil, nil, nil, "https://app.example.com/annotate"},
			want: overlay.Request{
				Enabled:        overlay.Bool(true),
				AnnotationsURL: "https://app.example.com/annotate",
			},
		},
		{
			name: "bare false",
			args: []any{false},
			want: overlay.Request{Enabled: overlay.Bool(false)},
		},
		{
			name: "string first",
			args: []any{"https://meet.example.com/meet/r1", collab, "https://collab.example.com"},
			want: overlay.Request{
				RoomURL:         "https://meet.example.com/meet/r1",
				Collab:          &overlay.CollabDetails{RoomID: "wb1", RoomKey: "key1"},
				CollabServerURL: "https://collab.example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToggle(mustMessage(t, bridge.ChannelToggleAnnotation, tt.args...))
			if err != nil {
				t.Fatalf("NormalizeToggle() error = %v", err)
			}
			assertRequest(t, got, tt.want)
		})
	}
}

func TestNormalizeToggle_RejectsUnknownShapes(t *testing.T) {
	tests := []struct {
		name string
		args []any
	}{
		{"number first", []any{42}},
		{"array first", []any{[]string{"a"}}},
		{"collab details not an object", []any{"https://meet.example.com/meet/r1", "wb1"}},
		{"room url not a string", []any{true, 7}},
		{"object with wrong field type", []any{map[string]any{"enabled": "yes"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeToggle(mustMessage(t, bridge.ChannelToggleAnnotation, tt.args...))
			if !errors.IsValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func assertRequest(t *testing.T, got, want overlay.Request) {
	t.Helper()
	switch {
	case (got.Enabled == nil) != (want.Enabled == nil):
		t.Errorf("Enabled = %v, want %v", got.Enabled, want.Enabled)
	case got.Enabled != nil && *got.Enabled != *want.Enabled:
		t.Errorf("Enabled = %v, want %v", *got.Enabled, *want.Enabled)
	}
	switch {
	case (got.Collab == nil) != (want.Collab == nil):
		t.Errorf("Collab = %+v, want %+v", got.Collab, want.Collab)
	case got.Collab != nil && *got.Collab != *want.Collab:
		t.Errorf("Collab = %+v, want %+v", *got.Collab, *want.Collab)
	}
	if got.RoomURL != want.RoomURL || got.CollabServerURL != want.CollabServerURL ||
		got.AnnotationsURL != want.AnnotationsURL || got.IsWindowSharing != want.IsWindowSharing {
		t.Errorf("request = %+v, want %+v", got, want)
	}
}

func TestCheckExternalURL(t *testing.T) {
	tests := []struct {
		raw        string
		allowed    bool
		permission bool
	}{
		{"https://sonacove.com/pricing", true, false},
		{"http://example.com", true, false},
		{"HTTPS://Example.com/x", true, false},
		{"  https://example.com  ", true, false},
		{"javascript:alert(1)", false, true},
		{"file:///etc/passwd", false, true},
		{"sonacove://meet/x", false, true},
		{"ms-settings:privacy", false, true},
		{"mailto:a@example.com", false, true},
		{"/relative/path", false, true},
		{"https://", false, false},
		{"http:///no-host", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := CheckExternalURL(tt.raw)
			if (err == nil) != tt.allowed {
				t.Fatalf("CheckExternalURL(%q) error = %v, allowed %v", tt.raw, err, tt.allowed)
			}
			if tt.permission && !errors.IsPermission(err) {
				t.Errorf("expected a permission error, got %v", err)
			}
		})
	}
}
