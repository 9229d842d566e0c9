package views

// Paginator keeps a cursor over a list and the window of rows shown around it.
// Unlike page-at-a-time paging the window scrolls one row at a time.
type Paginator struct {
	pageSize   int
	pageOffset int
	cursor     int
	totalItems int
}

// NewPaginator creates a paginator showing pageSize rows
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Paginator{pageSize: pageSize}
}

// SetPageSize changes the window height, e.g. after a resize
func (p *Paginator) SetPageSize(size int) {
	if size <= 0 {
		size = 1
	}
	p.pageSize = size
	p.follow()
}

// SetTotal sets the number of items, clamping the cursor
func (p *Paginator) SetTotal(total int) {
	p.totalItems = total
	if p.cursor >= total {
		p.cursor = total - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.follow()
}

// Cursor returns the selected index
func (p *Paginator) Cursor() int {
	return p.cursor
}

// CursorUp moves the selection up by one
func (p *Paginator) CursorUp() bool {
	if p.cursor > 0 {
		p.cursor--
		p.follow()
		return true
	}
	return false
}

// CursorDown moves the selection down by one
func (p *Paginator) CursorDown() bool {
	if p.cursor < p.totalItems-1 {
		p.cursor++
		p.follow()
		return true
	}
	return false
}

// VisibleRange returns the half-open range of rows to draw
func (p *Paginator) VisibleRange() (start, end int) {
	start = p.pageOffset
	end = min(p.pageOffset+p.pageSize, p.totalItems)
	return
}

// Hidden returns how many rows lie above and below the window
func (p *Paginator) Hidden() (above, below int) {
	start, end := p.VisibleRange()
	return start, p.totalItems - end
}

// follow scrolls the window so the cursor stays visible
func (p *Paginator) follow() {
	if p.cursor < p.pageOffset {
		p.pageOffset = p.cursor
	} else if p.cursor >= p.pageOffset+p.pageSize {
		p.pageOffset = p.cursor - p.pageSize + 1
	}
	if maxOffset := max(p.totalItems-p.pageSize, 0); p.pageOffset > maxOffset {
		p.pageOffset = maxOffset
	}
}
