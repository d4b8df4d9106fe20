package tracking

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mark/internal/adapters/logger"
	"go.trai.ch/mark/internal/core/ports"
)

// NodeID is the unique identifier for the metrics tracker Graft node.
const NodeID graft.ID = "adapter.tracker"

func init() {
	graft.Register(graft.Node[ports.TrackerFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.TrackerFactory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log), nil
		},
	})
}
