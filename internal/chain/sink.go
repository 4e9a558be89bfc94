package chain

import (
	"encoding/hex"

	"ClaimChain/internal/claims"
	"ClaimChain/internal/logger"
)

// blockSink collects the events emitted while applying one block.
type blockSink struct {
	height uint64         // height is the block being applied
	events []claims.Event // events are kept in emission order
}

// Emit records an event.
func (s *blockSink) Emit(ev claims.Event) {
	s.events = append(s.events, ev)

	logger.Debug("claim event",
		"height", s.height,
		"kind", ev.Kind(),
		"claim", hex.EncodeToString(ev.Content()),
	)
}
