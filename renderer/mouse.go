package renderer

// mouseState reproduces the Shadertoy iMouse contract. Position is
// tracked only while the primary button is down with the cursor inside
// the canvas; the origin records the press location and flips negative
// on release, so shaders reading iMouse.zw can distinguish held from
// released. Out-of-bounds and non-primary events never move the drag.
type mouseState struct {
	x, y             float32
	originX, originY float32
	down             bool
}

func (m *mouseState) set(x, y float32, down, inBounds bool) {
	switch {
	case down && inBounds:
		if !m.down {
			m.originX = x
			m.originY = y
			m.down = true
		}
		m.x = x
		m.y = y
	case !down && m.down:
		m.originX = -abs32(m.originX)
		m.originY = -abs32(m.originY)
		m.down = false
	}
}

func (m *mouseState) vec4() [4]float32 {
	return [4]float32{m.x, m.y, m.originX, m.originY}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
