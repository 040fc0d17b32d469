// Package export writes a dfirgraph.Graph out as Mermaid or Dot source for
// visualization. Not required for execution (spec §6, "Graph export").
//
// Grounded on matrix/conversions.go's shape: plain functions that walk
// g.Vertices()/g.Edges() and build a flat output representation, with no
// templating — just direct string-builder calls, matching the teacher's
// non-templated string-building style throughout matrix/.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/dfir/dfirgraph"
)

func nodeLabel(n *dfirgraph.Node) string {
	switch n.Kind {
	case dfirgraph.NodeHandoff:
		return "handoff"
	case dfirgraph.NodeModuleBoundary:
		return "boundary"
	default:
		if n.Varname != "" {
			return fmt.Sprintf("%s = %s", n.Varname, n.Op.OpName)
		}

		return n.Op.OpName
	}
}

func nodeID(n *dfirgraph.Node) string {
	return fmt.Sprintf("n%d", n.ID)
}

// ToMermaid renders g as a Mermaid flowchart, grouping nodes into `subgraph`
// blocks by their dfirgraph.SubgraphID (ungrouped nodes are emitted at the
// top level).
func ToMermaid(g *dfirgraph.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	byGroup := make(map[dfirgraph.SubgraphID][]*dfirgraph.Node)
	var ungrouped []*dfirgraph.Node
	for _, n := range g.Nodes() {
		if n.Subgraph == 0 {
			ungrouped = append(ungrouped, n)
			continue
		}
		byGroup[n.Subgraph] = append(byGroup[n.Subgraph], n)
	}

	var groupIDs []dfirgraph.SubgraphID
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	for _, gid := range groupIDs {
		fmt.Fprintf(&b, "  subgraph sg%d[\"subgraph %d\"]\n", gid, gid)
		for _, n := range byGroup[gid] {
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", nodeID(n), mermaidEscape(nodeLabel(n)))
		}
		b.WriteString("  end\n")
	}
	for _, n := range ungrouped {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", nodeID(n), mermaidEscape(nodeLabel(n)))
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Kind == dfirgraph.EdgeReference {
			arrow = "-.->"
		}
		src, err := g.Node(e.Src)
		if err != nil {
			continue
		}
		dst, err := g.Node(e.Dst)
		if err != nil {
			continue
		}
		label := edgeLabel(e)
		if label != "" {
			fmt.Fprintf(&b, "  %s %s|%s| %s\n", nodeID(src), arrow, mermaidEscape(label), nodeID(dst))
		} else {
			fmt.Fprintf(&b, "  %s %s %s\n", nodeID(src), arrow, nodeID(dst))
		}
	}

	return b.String()
}

// ToDot renders g as Graphviz Dot source.
func ToDot(g *dfirgraph.Graph) string {
	var b strings.Builder
	b.WriteString("digraph dfir {\n")

	for _, n := range g.Nodes() {
		shape := "box"
		if n.Kind == dfirgraph.NodeHandoff {
			shape = "ellipse"
		}
		fmt.Fprintf(&b, "  %s [label=%q shape=%s];\n", nodeID(n), nodeLabel(n), shape)
	}

	for _, e := range g.Edges() {
		style := "solid"
		if e.Kind == dfirgraph.EdgeReference {
			style = "dashed"
		}
		src, err := g.Node(e.Src)
		if err != nil {
			continue
		}
		dst, err := g.Node(e.Dst)
		if err != nil {
			continue
		}
		label := edgeLabel(e)
		if label != "" {
			fmt.Fprintf(&b, "  %s -> %s [style=%s label=%q];\n", nodeID(src), nodeID(dst), style, label)
		} else {
			fmt.Fprintf(&b, "  %s -> %s [style=%s];\n", nodeID(src), nodeID(dst), style)
		}
	}

	b.WriteString("}\n")

	return b.String()
}

func edgeLabel(e *dfirgraph.Edge) string {
	var parts []string
	if !e.SrcPort.Elided {
		parts = append(parts, e.SrcPort.String())
	}
	if !e.DstPort.Elided {
		parts = append(parts, e.DstPort.String())
	}

	return strings.Join(parts, "->")
}

func mermaidEscape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
