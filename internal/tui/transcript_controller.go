package tui

// TranscriptController tracks the selected message and where each message
// block sits in the rendered transcript. It contains pure data logic with no
// Bubble Tea dependencies.
type TranscriptController struct {
	total   int
	cursor  int
	starts  []int
	heights []int
}

func NewTranscriptController() *TranscriptController {
	return &TranscriptController{}
}

// SetTotal updates the message count and clamps the cursor.
func (c *TranscriptController) SetTotal(n int) {
	c.total = max(n, 0)
	if c.cursor >= c.total {
		c.cursor = max(c.total-1, 0)
	}
}

// Total returns the number of messages.
func (c *TranscriptController) Total() int {
	return c.total
}

// Cursor returns the selected message id.
func (c *TranscriptController) Cursor() int {
	return c.cursor
}

// MoveUp selects the previous message and reports whether the cursor moved.
func (c *TranscriptController) MoveUp() bool {
	if c.cursor > 0 {
		c.cursor--
		return true
	}
	return false
}

// MoveDown selects the next message and reports whether the cursor moved.
func (c *TranscriptController) MoveDown() bool {
	if c.cursor < c.total-1 {
		c.cursor++
		return true
	}
	return false
}

// Top selects the first message.
func (c *TranscriptController) Top() bool {
	moved := c.cursor != 0
	c.cursor = 0
	return moved
}

// Bottom selects the last message.
func (c *TranscriptController) Bottom() bool {
	last := max(c.total-1, 0)
	moved := c.cursor != last
	c.cursor = last
	return moved
}

// SetLayout records the first line and height of every message block.
func (c *TranscriptController) SetLayout(starts, heights []int) {
	c.starts = starts
	c.heights = heights
}

// Block returns the line span of message id.
func (c *TranscriptController) Block(id int) (start, height int, ok bool) {
	if id < 0 || id >= len(c.starts) || id >= len(c.heights) {
		return 0, 0, false
	}
	return c.starts[id], c.heights[id], true
}

// ScrollFor returns the scroll offset that keeps the selected block visible
// in a window of visible lines currently scrolled to offset. Blocks taller
// than the window are aligned to their first line.
func (c *TranscriptController) ScrollFor(offset, visible int) int {
	start, height, ok := c.Block(c.cursor)
	if !ok || visible <= 0 {
		return offset
	}

	end := start + height
	switch {
	case start < offset:
		offset = start
	case end > offset+visible:
		offset = min(start, end-visible)
	}

	return max(offset, 0)
}
