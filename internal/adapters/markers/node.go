package markers

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mark/internal/core/ports"
)

// NodeID is the unique identifier for the marker store factory Graft node.
const NodeID graft.ID = "adapter.marker_store"

func init() {
	graft.Register(graft.Node[ports.MarkerStoreFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.MarkerStoreFactory, error) {
			return NewFactory(), nil
		},
	})
}
