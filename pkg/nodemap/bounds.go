package nodemap

// growBounds grows the viewport by the largest amount any node protrudes
// past it on each axis. The viewport never shrinks here.
func (m *Map) growBounds() {
	var gapX, gapY float64
	for _, n := range m.nodes {
		gapX = max(gapX, protrusion(n.pos.X, n.width/2, m.width))
		gapY = max(gapY, protrusion(n.pos.Y, n.height/2, m.height))
	}
	if gapX == 0 && gapY == 0 {
		return
	}

	m.width += gapX
	m.height += gapY
	m.surface.Resize(m.width, m.height)
	m.logger.Debug("viewport grown", "width", m.width, "height", m.height)
	m.hooks.OnGrow(m.ctx, m.width, m.height)
}

// protrusion returns how far the span [c-half, c+half] sticks out of
// [0, extent], or zero.
func protrusion(c, half, extent float64) float64 {
	if over := half - c; over > 0 {
		return over
	}
	if over := c + half - extent; over > 0 {
		return over
	}
	return 0
}
