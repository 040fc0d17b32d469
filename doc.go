// Package dfir is a dataflow runtime and surface-language toolchain core:
// a flat statement list compiles to a typed operator graph (flatbuild),
// the graph is stratified and partitioned into pull/push subgraphs wired
// by handoffs (graphalgo, partition), and a single-threaded scheduler
// drives those subgraphs tick by tick against lattice-backed state
// (scheduler, lattice, dataflow).
//
// Subpackages:
//
//	row/        — heterogeneous tuple type shared by keyed operators
//	lattice/    — merge-semilattice algebra (Merge/LatticeFrom/DeepReveal) and concrete lattices
//	handoff/    — single-producer/single-consumer buffer between subgraphs
//	opcatalog/  — static operator registry: arities, ports, delay types
//	dfirgraph/  — the node/edge/port/subgraph graph representation
//	flatbuild/  — statement list -> dfirgraph.Graph, with diagnostics
//	graphalgo/  — topological sort, cycle detection, stratum assignment
//	partition/  — pull/push coloring and handoff insertion
//	scheduler/  — ready-set, tick/stratum driver, state arena
//	dataflow/   — wires a partitioned graph, its handoffs and run functions into one runnable Instance
//	wire/       — wire-level types for a distributed deployment built elsewhere
//	export/     — Mermaid/Dot graph rendering
//
// cmd/dfirctl is a CLI front end for building, inspecting and exporting
// programs written against this core.
package dfir
