package services

import (
	"errors"
	"testing"

	"sonacove/internal/host/hosttest"
	shellerrors "sonacove/internal/infrastructure/errors"
)

func TestHelpDocsService_Open(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		openErr error
		check   func(error) bool
		opened  []string
	}{
		{"https docs", "https://docs.sonacove.com/", nil, nil, []string{"https://docs.sonacove.com/"}},
		{"whitespace trimmed", "  https://docs.example.com/  ", nil, nil, []string{"https://docs.example.com/"}},
		{"file scheme rejected", "file:///etc/passwd", nil, shellerrors.IsPermission, nil},
		{"missing host", "https://", nil, shellerrors.IsValidation, nil},
		{"browser failure", "https://docs.example.com/", errors.New("access denied"), shellerrors.IsPermission, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hosttest.New("linux")
			h.OpenErr = tt.openErr
			svc := NewHelpDocsService(tt.url, h, nil)

			err := svc.Open()
			if tt.check == nil && err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if tt.check != nil && !tt.check(err) {
				t.Fatalf("Open() error = %v", err)
			}
			got := h.Opened()
			if len(got) != len(tt.opened) {
				t.Fatalf("opened %v, want %v", got, tt.opened)
			}
			for i := range got {
				if got[i] != tt.opened[i] {
					t.Errorf("opened[%d] = %q, want %q", i, got[i], tt.opened[i])
				}
			}
		})
	}
}

func TestHelpDocsService_NoOpener(t *testing.T) {
	if err := NewHelpDocsService("https://docs.example.com/", nil, nil).Open(); !shellerrors.IsUnavailable(err) {
		t.Errorf("Open() = %v, want unavailable", err)
	}
}
