package report

import (
	"html/template"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is one line under a node: a step entry or an annotation.
type Log struct {
	Status  Status
	Details template.HTML
	Time    time.Time
	// Step is set on step entries. Annotations only decorate the report
	// and never count towards a node's status.
	Step bool
}

// Node is a feature or scenario in the report tree. Nodes are handed out by
// a Sink and are safe for concurrent use.
type Node struct {
	ID      string
	Title   string
	Created time.Time

	mu         sync.Mutex
	parent     *Node
	categories []string
	logs       []Log
	children   []*Node
}

func newNode(title string, parent *Node, now time.Time) *Node {
	return &Node{
		ID:      uuid.NewString(),
		Title:   title,
		Created: now,
		parent:  parent,
	}
}

// Parent returns the feature node of a scenario, or nil for a feature.
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) addChild(c *Node) {
	n.mu.Lock()
	n.children = append(n.children, c)
	n.mu.Unlock()
}

func (n *Node) addLog(l Log) {
	n.mu.Lock()
	n.logs = append(n.logs, l)
	n.mu.Unlock()
}

func (n *Node) addCategories(cats ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range cats {
		if c == "" || contains(n.categories, c) {
			continue
		}
		n.categories = append(n.categories, c)
	}
}

// Logs returns a copy of the node's log lines in insertion order.
func (n *Node) Logs() []Log {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Log(nil), n.logs...)
}

// Steps returns the node's step entries, without annotations.
func (n *Node) Steps() []Log {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Log
	for _, l := range n.logs {
		if l.Step {
			out = append(out, l)
		}
	}
	return out
}

// Children returns a copy of the node's children in creation order.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// Categories returns the node's category tags.
func (n *Node) Categories() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.categories...)
}

// Status rolls the node's step entries and its children up into one
// status. A node with no steps recorded yet is Passed.
func (n *Node) Status() Status {
	logs, children := n.Steps(), n.Children()
	st := Other
	seen := false
	for _, l := range logs {
		st, seen = worse(st, l.Status), true
	}
	for _, c := range children {
		st, seen = worse(st, c.Status()), true
	}
	if !seen || st == Other {
		return Passed
	}
	return st
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
