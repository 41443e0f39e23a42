package report

import (
	"testing"

	"github.com/noperator/memgrind/pkg/valgrind"
)

func strPtr(s string) *string { return &s }
func u64Ptr(n uint64) *uint64 { return &n }

func frame(name string) valgrind.Function {
	return valgrind.Function{Name: strPtr(name)}
}

func sampleLeaks() []valgrind.Leak {
	return []valgrind.Leak{
		{
			Bytes: 40,
			Kind:  valgrind.KindDefinitelyLost,
			StackTrace: []valgrind.Function{
				frame("malloc"), frame("leaky"), frame("main"),
			},
		},
		{
			Bytes: 8,
			Kind:  valgrind.KindStillReachable,
			StackTrace: []valgrind.Function{
				frame("malloc"), frame("keep"), frame("main"),
			},
		},
	}
}

func TestBuildLeakGraph(t *testing.T) {
	lg := BuildLeakGraph(sampleLeaks())

	vertices, edges := lg.Size()
	if vertices != 4 {
		t.Errorf("got %d vertices, want 4", vertices)
	}
	if edges != 4 {
		t.Errorf("got %d edges, want 4", edges)
	}
}

func TestHotspots(t *testing.T) {
	hotspots := BuildLeakGraph(sampleLeaks()).Hotspots()

	if len(hotspots) != 4 {
		t.Fatalf("got %d hotspots, want 4", len(hotspots))
	}

	// malloc and main both see all 48 bytes, but malloc is the
	// allocation site and ranks first on self bytes.
	if hotspots[0].Function != "malloc" || hotspots[0].CumulativeBytes != 48 || hotspots[0].SelfBytes != 48 {
		t.Errorf("hotspots[0] = %+v", hotspots[0])
	}
	if hotspots[1].Function != "main" || hotspots[1].CumulativeBytes != 48 || hotspots[1].SelfBytes != 0 {
		t.Errorf("hotspots[1] = %+v", hotspots[1])
	}
	if hotspots[2].Function != "leaky" || hotspots[2].CumulativeBytes != 40 || hotspots[2].Leaks != 1 {
		t.Errorf("hotspots[2] = %+v", hotspots[2])
	}
	if hotspots[3].Function != "keep" || hotspots[3].CumulativeBytes != 8 {
		t.Errorf("hotspots[3] = %+v", hotspots[3])
	}
}

func TestHotspotsRecursiveTrace(t *testing.T) {
	leaks := []valgrind.Leak{
		{
			Bytes: 16,
			Kind:  valgrind.KindDefinitelyLost,
			StackTrace: []valgrind.Function{
				frame("malloc"), frame("grow"), frame("grow"), frame("main"),
			},
		},
	}

	for _, hotspot := range BuildLeakGraph(leaks).Hotspots() {
		if hotspot.Function == "grow" {
			if hotspot.CumulativeBytes != 16 || hotspot.Leaks != 1 {
				t.Errorf("recursive frame counted twice: %+v", hotspot)
			}
			return
		}
	}
	t.Fatal("grow not found in hotspots")
}

func TestCallPath(t *testing.T) {
	lg := BuildLeakGraph(sampleLeaks())

	path := lg.CallPath("main", "malloc")
	if len(path) != 3 || path[0] != "main" || path[2] != "malloc" {
		t.Errorf("CallPath(main, malloc) = %v", path)
	}

	if path := lg.CallPath("malloc", "main"); path != nil {
		t.Errorf("CallPath(malloc, main) = %v, want nil (edges run caller to callee)", path)
	}
}

func TestFrameLabelWithoutName(t *testing.T) {
	leaks := []valgrind.Leak{
		{
			Bytes:      4,
			Kind:       valgrind.KindPossiblyLost,
			StackTrace: []valgrind.Function{{File: strPtr("main.c"), Line: u64Ptr(3)}},
		},
	}

	hotspots := BuildLeakGraph(leaks).Hotspots()
	if len(hotspots) != 1 || hotspots[0].Function != "unknown" {
		t.Errorf("hotspots = %+v, want single unknown entry", hotspots)
	}
}
