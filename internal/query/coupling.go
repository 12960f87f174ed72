package query

// CouplingMetrics is the efferent/afferent/instability triple: efferent
// counts outbound dependency edges, afferent counts inbound, instability
// = efferent / (efferent + afferent), and a block with no edges at all is
// reported with instability 0 rather than NaN.
type CouplingMetrics struct {
	BlockID     string
	Efferent    int
	Afferent    int
	Instability float64
}

// Coupling computes efferent/afferent/instability for one block from the
// store's non-containment edges (OutboundEdges/InboundEdges already
// exclude `contains`).
func (e *Engine) Coupling(blockID string) (CouplingMetrics, error) {
	out, err := e.store.OutboundEdges(blockID)
	if err != nil {
		return CouplingMetrics{}, err
	}
	in, err := e.store.InboundEdges(blockID)
	if err != nil {
		return CouplingMetrics{}, err
	}

	m := CouplingMetrics{BlockID: blockID, Efferent: len(out), Afferent: len(in)}
	if total := m.Efferent + m.Afferent; total > 0 {
		m.Instability = float64(m.Efferent) / float64(total)
	}
	return m, nil
}
