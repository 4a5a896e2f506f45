package txn

// Handle is what Begin gives to a participant. It must be
// passed to Resolve exactly once.
type Handle struct {
	scope *scope
	state *state

	name      string
	newTx     bool
	savepoint *savepoint
	completed bool
}

// IsNewTransaction is true only for the participant
// that opened the physical session.
func (h *Handle) IsNewTransaction() bool {
	return h.newTx
}

func (h *Handle) IsCompleted() bool {
	return h.completed
}

func (h *Handle) Name() string {
	return h.name
}

// ID of the physical transaction the handle participates in.
func (h *Handle) ID() string {
	return h.state.id
}

func (h *Handle) HasSavepoint() bool {
	return h.savepoint != nil
}
