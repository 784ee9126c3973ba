// Package topology discovers the electrical nodes of a circuit from the
// geometry of its element posts.
//
// Two posts belong to the same node exactly when their coordinates are
// identical. Posts of ground elements are always node 0. The partition is
// rebuilt from scratch on every analysis; indices from one analysis must not
// be reused after another.
package topology

import (
	"github.com/san-kum/circsim/internal/element"
)

// Ground is the reserved reference node.
const Ground = 0

// Link attaches one element post to a node.
type Link struct {
	Element element.Element
	Post    int
}

type Node struct {
	Links []Link
}

// VoltageSource records which element owns a global constraint row.
type VoltageSource struct {
	Element element.Element
	Local   int
}

type Topology struct {
	Nodes          []Node
	VoltageSources []VoltageSource
	NonLinear      bool
}

func (t *Topology) NodeCount() int { return len(t.Nodes) }

func (t *Topology) VoltageSourceCount() int { return len(t.VoltageSources) }

// MatrixSize is the number of unknowns: every node but ground plus one
// current per voltage source.
func (t *Topology) MatrixSize() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return len(t.Nodes) - 1 + len(t.VoltageSources)
}

// NodeMap maps every distinct post coordinate to a node index.
type NodeMap struct {
	Keys      map[element.Point]int
	NodeCount int
}

// Partition computes the node partition without touching the elements.
func Partition(elements []element.Element) NodeMap {
	p := NodeMap{Keys: make(map[element.Point]int)}
	if len(elements) == 0 {
		return p
	}

	// Ground keys are claimed first so a post seen before its ground
	// element cannot leave an empty node behind.
	for _, e := range elements {
		if e.Type() != element.TypeGround {
			continue
		}
		for i := 0; i < e.PostCount(); i++ {
			p.Keys[e.Post(i)] = Ground
		}
	}

	next := Ground
	for _, e := range elements {
		for i := 0; i < e.PostCount(); i++ {
			key := e.Post(i)
			if _, seen := p.Keys[key]; seen {
				continue
			}
			next++
			p.Keys[key] = next
		}
	}
	p.NodeCount = next + 1
	return p
}

// Analyze partitions the circuit and binds every element to it: node indices
// on each post, link records on each node and global voltage-source indices
// in element-list order.
func Analyze(elements []element.Element) *Topology {
	t := &Topology{}
	if len(elements) == 0 {
		return t
	}

	part := Partition(elements)
	t.Nodes = make([]Node, part.NodeCount)

	vs := 0
	for _, e := range elements {
		if e.NonLinear() {
			t.NonLinear = true
		}

		for i := 0; i < e.PostCount(); i++ {
			n := part.Keys[e.Post(i)]
			e.SetNode(i, n)
			t.Nodes[n].Links = append(t.Nodes[n].Links, Link{Element: e, Post: i})
		}

		for j := 0; j < e.VoltageSourceCount(); j++ {
			t.VoltageSources = append(t.VoltageSources, VoltageSource{Element: e, Local: j})
			e.SetVoltageSource(j, vs)
			vs++
		}
	}

	return t
}

// NodeOf returns the node a coordinate belongs to, or -1 if no post sits there.
func (t *Topology) NodeOf(p element.Point) int {
	for n, node := range t.Nodes {
		for _, l := range node.Links {
			if l.Element.Post(l.Post) == p {
				return n
			}
		}
	}
	return -1
}
