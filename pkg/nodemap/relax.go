package nodemap

// Animate starts the relaxation loop of n's subtree.
//
// It cancels n's pending movement timeout, clears the forced stop on n and
// its ancestors, arms a new timeout and runs the first tick right away.
// A loop already running on n is superseded: its next tick sees a newer
// epoch and ends.
func (n *Node) Animate() {
	m := n.m

	n.epoch++
	epoch := n.epoch

	if n.timeout != nil {
		n.timeout.Stop()
	}
	for a := n; a != nil; a = a.parent {
		a.forcedStop = false
	}
	m.timedOut = false
	n.timeout = m.sched.AfterFunc(m.timeout, func() { n.expire(epoch) })

	n.state = StateAnimating
	n.ticks = 0
	n.started = m.sched.Now()
	m.hooks.OnAnimate(m.ctx, n.id)

	n.tick(epoch)
}

// expire is the movement timeout of the Animate call that armed it.
func (n *Node) expire(epoch uint64) {
	if epoch != n.epoch {
		return
	}
	m := n.m
	n.timeout = nil
	m.root.forcedStop = true
	m.timedOut = true
	m.finalizeConnectors()
	m.logger.Warn("movement stopped by timeout", "node", n.label, "after", m.timeout)
	m.hooks.OnTimeout(m.ctx, n.id)
}

func (n *Node) tick(epoch uint64) {
	if epoch != n.epoch {
		return
	}
	m := n.m
	n.ticks++

	if m.connectorsVisible {
		m.redrawConnectors()
	}

	stable := n.seekEquilibrium()
	if stable && n.parent == nil && m.dragActive {
		m.dragActive = false
	}

	if stable || n.stopped() {
		n.finish(stable)
		return
	}

	if !m.dragActive {
		m.growBounds()
	}
	m.sched.AfterFunc(m.tick, func() { n.tick(epoch) })
}

// stopped reports whether a forced stop applies to n's subtree.
func (n *Node) stopped() bool {
	for a := n; a != nil; a = a.parent {
		if a.forcedStop {
			return true
		}
	}
	return false
}

func (n *Node) finish(stable bool) {
	m := n.m
	if stable {
		n.state = StateStabilized
		if n.timeout != nil {
			n.timeout.Stop()
			n.timeout = nil
		}
	} else {
		n.state = StateTimedOut
	}

	// A subtree loop that outlives the root's has redrawn the connectors
	// since the root finalized them.
	if n.parent == nil || (m.root.state != StateAnimating && m.Idle()) {
		m.finalizeConnectors()
	}
	if n.parent == nil && stable {
		m.logger.Info("map settled", "nodes", len(m.nodes), "ticks", n.ticks)
	}

	elapsed := m.sched.Now().Sub(n.started)
	m.logger.Debug("relaxation finished", "node", n.label, "state", n.state, "ticks", n.ticks, "elapsed", elapsed)
	m.hooks.OnSettled(m.ctx, n.id, n.ticks, elapsed, !stable)
}
