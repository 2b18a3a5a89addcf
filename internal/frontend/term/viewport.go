package term

// Viewport is a window of Rows cards over the result list
type Viewport struct {
	rows   int
	offset int
	ids    func() []string
}

// NewViewport creates a viewport showing rows cards at a time
func NewViewport(rows int) *Viewport {
	if rows < 1 {
		rows = 1
	}
	return &Viewport{rows: rows, ids: func() []string { return nil }}
}

// Attach sets where card ids come from
func (v *Viewport) Attach(ids func() []string) {
	v.ids = ids
}

// Window returns the visible index range [start, end) for n cards
func (v *Viewport) Window(n int) (start, end int) {
	start = v.offset
	if start > n {
		start = n
	}
	end = start + v.rows
	if end > n {
		end = n
	}
	return start, end
}

// Reset scrolls back to the top
func (v *Viewport) Reset() {
	v.offset = 0
}

// Scroll moves the window by delta cards
func (v *Viewport) Scroll(delta int) {
	v.offset += delta
	if last := len(v.ids()) - v.rows; v.offset > last {
		v.offset = last
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

func (v *Viewport) index(id string) int {
	for i, candidate := range v.ids() {
		if candidate == id {
			return i
		}
	}
	return -1
}

func (v *Viewport) Occluded(id string) bool {
	i := v.index(id)
	return i >= 0 && (i < v.offset || i >= v.offset+v.rows)
}

func (v *Viewport) ScrollIntoView(id string) {
	i := v.index(id)
	switch {
	case i < 0:
	case i < v.offset:
		v.offset = i
	case i >= v.offset+v.rows:
		v.offset = i - v.rows + 1
	}
}

func (v *Viewport) ScrollToCenter(id string) {
	i := v.index(id)
	if i < 0 {
		return
	}
	v.offset = i - v.rows/2
	v.Scroll(0)
}
