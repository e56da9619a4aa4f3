package events

import "time"

// NodeCreatedEvent is published after a node and its initial placement
// are committed.
type NodeCreatedEvent struct {
	NodeID    int64
	ParentID  *int64
	Name      string
	Depth     int
	CreatedAt time.Time
}

type NodeUpdatedEvent struct {
	NodeID    int64
	Name      string
	UpdatedAt time.Time
}

type NodeMovedEvent struct {
	NodeID      int64
	OldParentID *int64
	NewParentID *int64
	NewDepth    int
}

type NodeDeletedEvent struct {
	NodeID  int64
	Cascade bool
	// Deleted lists every node soft-deleted by the operation, the
	// requested node included.
	Deleted []int64
}

type HierarchyActivatedEvent struct {
	RootID int64
	// Nodes carries the ids marked active, root included.
	Nodes []int64
}

type HierarchyDeactivatedEvent struct {
	// Cleared is the number of nodes whose active flag was dropped.
	Cleared int64
}
