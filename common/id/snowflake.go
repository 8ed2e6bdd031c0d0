// Package id generates the gateway's trace and message identifiers.
// Snowflake ids are time-ordered, which keeps traces sortable by start
// time in logs without a separate timestamp column.
package id

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the generator with the given node id. Only the first
// call has any effect; the node id distinguishes replicas so ids never
// collide across instances.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a globally unique int64 id.
func New() int64 {
	return node.Generate().Int64()
}

// NewString generates an id in compact base-36 form, the shape used for
// the stream protocol's trace_id and message_id fields.
func NewString() string {
	return strconv.FormatInt(New(), 36)
}
