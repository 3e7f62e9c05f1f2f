package plan

import (
	"fmt"

	"github.com/google/uuid"
)

// ID prefixes keep exported layouts greppable by entity kind.
const (
	nodeIDPrefix = "node"
	edgeIDPrefix = "edge"
	portIDPrefix = "port"
)

// NewNodeID mints a fresh node identifier.
func NewNodeID() string { return mintID(nodeIDPrefix) }

// NewEdgeID mints a fresh edge identifier.
func NewEdgeID() string { return mintID(edgeIDPrefix) }

// NewPortID mints a fresh port identifier.
func NewPortID() string { return mintID(portIDPrefix) }

func mintID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}
