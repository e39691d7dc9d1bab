package configd

// Package configd talks to the external configuration daemon. The
// daemon owns the configuration trees and transaction state; this
// client only reads subtrees and per-node change status.

import "fmt"

// Database selects which configuration view a query runs against.
type Database int

const (
	Auto Database = iota
	Running
	Candidate
	Effective
)

func (d Database) String() string {
	switch d {
	case Auto:
		return "AUTO"
	case Running:
		return "RUNNING"
	case Candidate:
		return "CANDIDATE"
	case Effective:
		return "EFFECTIVE"
	}
	return fmt.Sprintf("Database(%d)", int(d))
}

// Status is the change state the daemon reports for a config node
// when a candidate configuration is being committed.
type Status int

const (
	Unchanged Status = iota
	Added
	Deleted
	Changed
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "UNCHANGED"
	case Added:
		return "ADDED"
	case Deleted:
		return "DELETED"
	case Changed:
		return "CHANGED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus maps the daemon's wire strings onto Status values.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "UNCHANGED":
		return Unchanged, nil
	case "ADDED":
		return Added, nil
	case "DELETED":
		return Deleted, nil
	case "CHANGED":
		return Changed, nil
	}
	return Unchanged, fmt.Errorf("unknown node status %q", s)
}

// Client is the daemon surface the provisioning code consumes. Tests
// substitute a fake; production code uses the socket client.
type Client interface {
	// TreeGet returns the subtree rooted at path as decoded JSON.
	TreeGet(db Database, path []string) (map[string]any, error)
	// NodeGetStatus reports the change state of the node at path.
	NodeGetStatus(db Database, path []string) (Status, error)
	Close() error
}
