package geometry

import "fmt"

// Rect is a window or display area in virtual-screen coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the overlapping area of r and o, or a zero Rect
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Area returns width*height, zero for empty rectangles
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// center2 returns twice the midpoint so it stays integral
func (r Rect) center2() (int, int) {
	return 2*r.X + r.Width, 2*r.Y + r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d (%dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Display is one attached screen
type Display struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Bounds  Rect   `json:"bounds"`
	Primary bool   `json:"primary"`
}

// Source enumerates the currently attached displays
type Source interface {
	Displays() []Display
}

// SourceFunc adapts a function to Source
type SourceFunc func() []Display

func (f SourceFunc) Displays() []Display { return f() }

// Resolver picks displays for window placement. The layout is re-read on
// every call because monitors can be attached or removed at any time.
type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// DisplayMatching returns the display that most overlaps r. Ties go to the
// earlier display. When nothing overlaps, the display whose centre is
// nearest to r's centre is used. With no displays a zero Display is returned.
func (res *Resolver) DisplayMatching(r Rect) Display {
	displays := res.displays()
	if len(displays) == 0 {
		return Display{}
	}

	best, bestArea := -1, 0
	for i, d := range displays {
		if area := d.Bounds.Intersect(r).Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	if best >= 0 {
		return displays[best]
	}

	cx, cy := r.center2()
	best, bestDist := 0, -1
	for i, d := range displays {
		dx, dy := d.Bounds.center2()
		dist := (dx-cx)*(dx-cx) + (dy-cy)*(dy-cy)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return displays[best]
}

// Primary returns the display flagged primary, else the first one
func (res *Resolver) Primary() Display {
	displays := res.displays()
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	if len(displays) > 0 {
		return displays[0]
	}
	return Display{}
}

func (res *Resolver) displays() []Display {
	if res == nil || res.source == nil {
		return nil
	}
	return res.source.Displays()
}
