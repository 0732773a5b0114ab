package story

// NoFrame is the selected-frame sentinel for an empty story.
const NoFrame = -1

// Carousel is pure index-based paging over a frame sequence. It knows
// nothing about fetching; the session feeds it the current length.
type Carousel struct {
	length   int
	selected int
}

// NewCarousel creates a carousel over length frames with nothing selected.
func NewCarousel(length int) Carousel {
	c := Carousel{length: length, selected: NoFrame}
	if length > 0 {
		c.selected = 0
	}
	return c
}

// Len returns the number of frames.
func (c Carousel) Len() int {
	return c.length
}

// Selected returns the selected index, or NoFrame when empty.
func (c Carousel) Selected() int {
	return c.selected
}

// Select clamps n into the valid range and returns the updated carousel
// plus whether the selection changed. Empty carousels ignore selection.
func (c Carousel) Select(n int) (Carousel, bool) {
	if c.length == 0 {
		return c, false
	}
	n = clamp(n, 0, c.length-1)
	if n == c.selected {
		return c, false
	}
	c.selected = n
	return c, true
}

// Next advances one frame, clamped at the end.
func (c Carousel) Next() (Carousel, bool) {
	return c.Select(c.selected + 1)
}

// Prev steps back one frame, clamped at the start.
func (c Carousel) Prev() (Carousel, bool) {
	return c.Select(c.selected - 1)
}

// Resize changes the length, preserving the selection where possible.
// Growing an empty carousel selects the given preferred index; shrinking
// clamps the existing selection.
func (c Carousel) Resize(length, preferred int) Carousel {
	out := Carousel{length: length, selected: NoFrame}
	if length == 0 {
		return out
	}
	switch {
	case c.selected == NoFrame:
		out.selected = clamp(preferred, 0, length-1)
	default:
		out.selected = clamp(c.selected, 0, length-1)
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
