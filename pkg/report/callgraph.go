package report

import (
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/noperator/memgrind/pkg/valgrind"
)

// LeakGraph merges the call traces of one run's leaks into a directed
// call graph, with leaked bytes attributed to the functions involved.
type LeakGraph struct {
	g     graph.Graph[string, string]
	stats map[string]*Hotspot
}

// Hotspot is the per-function share of a run's leaked memory.
// SelfBytes counts leaks allocated directly in the function (it is the
// top frame); CumulativeBytes counts every leak whose trace passes
// through it.
type Hotspot struct {
	Function        string `json:"function"`
	SelfBytes       uint64 `json:"self_bytes"`
	CumulativeBytes uint64 `json:"cumulative_bytes"`
	Leaks           int    `json:"leaks"`
}

// BuildLeakGraph creates the call graph for a set of leaks. Stack
// traces are most recent call first, so each edge runs from a frame to
// the frame above it in the trace.
func BuildLeakGraph(leaks []valgrind.Leak) *LeakGraph {
	lg := &LeakGraph{
		g:     graph.New(graph.StringHash, graph.Directed()),
		stats: make(map[string]*Hotspot),
	}

	for _, leak := range leaks {
		seen := make(map[string]bool)
		for i, frame := range leak.StackTrace {
			label := frameLabel(frame)
			_ = lg.g.AddVertex(label)

			stat := lg.stats[label]
			if stat == nil {
				stat = &Hotspot{Function: label}
				lg.stats[label] = stat
			}
			if i == 0 {
				stat.SelfBytes += leak.Bytes
			}
			// Recursive traces repeat a function; count the leak once.
			if !seen[label] {
				seen[label] = true
				stat.CumulativeBytes += leak.Bytes
				stat.Leaks++
			}

			if i+1 < len(leak.StackTrace) {
				caller := frameLabel(leak.StackTrace[i+1])
				_ = lg.g.AddVertex(caller)
				_ = lg.g.AddEdge(caller, label)
			}
		}
	}

	return lg
}

// Hotspots returns every function of the graph ranked by cumulative
// leaked bytes, heaviest first.
func (lg *LeakGraph) Hotspots() []Hotspot {
	hotspots := make([]Hotspot, 0, len(lg.stats))
	for _, stat := range lg.stats {
		hotspots = append(hotspots, *stat)
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].CumulativeBytes != hotspots[j].CumulativeBytes {
			return hotspots[i].CumulativeBytes > hotspots[j].CumulativeBytes
		}
		if hotspots[i].SelfBytes != hotspots[j].SelfBytes {
			return hotspots[i].SelfBytes > hotspots[j].SelfBytes
		}
		return hotspots[i].Function < hotspots[j].Function
	})

	return hotspots
}

// CallPath returns one call chain from caller down to callee, or nil
// when no trace connects them.
func (lg *LeakGraph) CallPath(from, to string) []string {
	path, err := graph.ShortestPath(lg.g, from, to)
	if err != nil {
		return nil
	}
	return path
}

// Size reports the graph's vertex and edge counts.
func (lg *LeakGraph) Size() (vertices, edges int) {
	if order, err := lg.g.Order(); err == nil {
		vertices = order
	}
	if size, err := lg.g.Size(); err == nil {
		edges = size
	}
	return vertices, edges
}

func frameLabel(frame valgrind.Function) string {
	if frame.Name != nil {
		return *frame.Name
	}
	return "unknown"
}
