package pp

import "cnav/internal/source"

// condStack tracks nested #if groups.
type condStack struct {
	frames []condFrame
}

type condFrame struct {
	parentActive bool
	taken        bool // some branch of this group was entered
	active       bool
	seenElse     bool
	opened       source.Span
}

func (c *condStack) Depth() int { return len(c.frames) }

func (c *condStack) Active() bool {
	if len(c.frames) == 0 {
		return true
	}
	return c.frames[len(c.frames)-1].active
}

func (c *condStack) Push(cond bool, at source.Span) {
	parent := c.Active()
	active := parent && cond
	c.frames = append(c.frames, condFrame{
		parentActive: parent,
		taken:        active,
		active:       active,
		opened:       at,
	})
}

// NeedsEval reports whether an #elif condition would decide anything.
func (c *condStack) NeedsEval() bool {
	if len(c.frames) == 0 {
		return false
	}
	top := c.frames[len(c.frames)-1]
	return top.parentActive && !top.taken && !top.seenElse
}

func (c *condStack) Elif(cond bool) {
	if len(c.frames) == 0 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	if !top.parentActive || top.taken {
		top.active = false
		return
	}
	top.active = cond
	top.taken = cond
}

func (c *condStack) Else() {
	if len(c.frames) == 0 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	top.seenElse = true
	if !top.parentActive {
		top.active = false
		return
	}
	top.active = !top.taken
	top.taken = true
}

func (c *condStack) SeenElse() bool {
	return len(c.frames) > 0 && c.frames[len(c.frames)-1].seenElse
}

func (c *condStack) Pop() {
	if len(c.frames) == 0 {
		return
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// Unclosed returns the directive that opened the innermost open group.
func (c *condStack) Unclosed() source.Span {
	if len(c.frames) == 0 {
		return source.Span{}
	}
	return c.frames[len(c.frames)-1].opened
}
