package geometry

import "testing"

var dualLayout = []Display{
	{ID: "1", Label: "Left", Bounds: Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true},
	{ID: "2", Label: "Right", Bounds: Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
}

func staticSource(displays []Display) Source {
	return SourceFunc(func() []Display { return displays })
}

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected Rect
	}{
		{"overlap", Rect{0, 0, 100, 100}, Rect{50, 50, 100, 100}, Rect{50, 50, 50, 50}},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 20, 20}, Rect{10, 10, 20, 20}},
		{"touching edges", Rect{0, 0, 100, 100}, Rect{100, 0, 100, 100}, Rect{}},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{50, 50, 10, 10}, Rect{}},
		{"negative coordinates", Rect{-100, 0, 200, 100}, Rect{-50, 50, 10, 10}, Rect{-50, 50, 10, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.expected {
				t.Errorf("Intersect() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestResolver_DisplayMatching(t *testing.T) {
	resolver := NewResolver(staticSource(dualLayout))

	tests := []struct {
		name       string
		window     Rect
		expectedID string
	}{
		{"fully on left", Rect{100, 100, 800, 600}, "1"},
		{"fully on right", Rect{2000, 100, 800, 600}, "2"},
		{"mostly on right", Rect{1800, 100, 800, 600}, "2"},
		{"mostly on left", Rect{1500, 100, 800, 600}, "1"},
		{"off screen to the right", Rect{9000, 0, 100, 100}, "2"},
		{"off screen to the left", Rect{-5000, 0, 100, 100}, "1"},
		{"zero size window", Rect{3000, 100, 0, 0}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.DisplayMatching(tt.window); got.ID != tt.expectedID {
				t.Errorf("DisplayMatching(%v) = %s, want %s", tt.window, got.ID, tt.expectedID)
			}
		})
	}
}

func TestResolver_TieGoesToFirstDisplay(t *testing.T) {
	resolver := NewResolver(staticSource([]Display{
		{ID: "a", Bounds: Rect{0, 0, 100, 100}},
		{ID: "b", Bounds: Rect{100, 0, 100, 100}},
	}))
	if got := resolver.DisplayMatching(Rect{50, 0, 100, 100}); got.ID != "a" {
		t.Errorf("expected tie to resolve to first display, got %s", got.ID)
	}
}

func TestResolver_Primary(t *testing.T) {
	tests := []struct {
		name       string
		displays   []Display
		expectedID string
	}{
		{"flagged primary", []Display{{ID: "x"}, {ID: "y", Primary: true}}, "y"},
		{"no flag falls back to first", []Display{{ID: "x"}, {ID: "y"}}, "x"},
		{"no displays", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewResolver(staticSource(tt.displays)).Primary(); got.ID != tt.expectedID {
				t.Errorf("Primary() = %q, want %q", got.ID, tt.expectedID)
			}
		})
	}
}

func TestResolver_ReadsLayoutOnEveryCall(t *testing.T) {
	layout := []Display{{ID: "1", Bounds: Rect{0, 0, 100, 100}}}
	resolver := NewResolver(SourceFunc(func() []Display { return layout }))

	if got := resolver.DisplayMatching(Rect{200, 0, 10, 10}); got.ID != "1" {
		t.Fatalf("expected 1, got %s", got.ID)
	}
	layout = append(layout, Display{ID: "2", Bounds: Rect{100, 0, 200, 100}})
	if got := resolver.DisplayMatching(Rect{200, 0, 10, 10}); got.ID != "2" {
		t.Errorf("newly attached display not picked up, got %s", got.ID)
	}
}

func TestResolver_Empty(t *testing.T) {
	var nilResolver *Resolver
	if got := nilResolver.DisplayMatching(Rect{0, 0, 10, 10}); got != (Display{}) {
		t.Errorf("nil resolver should return zero display, got %v", got)
	}
	if got := NewResolver(nil).Primary(); got != (Display{}) {
		t.Errorf("nil source should return zero display, got %v", got)
	}
}
