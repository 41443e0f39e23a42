package report

import (
	"github.com/noperator/memgrind/pkg/valgrind"
)

// Report is the JSON document emitted for one analysis run.
type Report struct {
	Binary     string    `json:"binary"`
	TotalBytes uint64    `json:"total_bytes"`
	Leaks      []Finding `json:"leaks"`
}

// Finding is one leak, optionally enriched with source context for the
// frames that carry debug info.
type Finding struct {
	Leak   valgrind.Leak  `json:"leak"`
	Frames []FrameContext `json:"frames"`
}

// FrameContext pairs a frame's rendered form with the source context
// resolved for it. Source fields stay empty when the frame lacks
// file/line info or no source directory was given.
type FrameContext struct {
	Frame      string `json:"frame"`
	SourceLine string `json:"source_line,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// New assembles a report from extracted leaks without source context.
func New(binary string, leaks []valgrind.Leak) *Report {
	report := &Report{
		Binary: binary,
		Leaks:  make([]Finding, 0, len(leaks)),
	}
	for _, leak := range leaks {
		finding := Finding{
			Leak:   leak,
			Frames: make([]FrameContext, 0, len(leak.StackTrace)),
		}
		for _, frame := range leak.StackTrace {
			finding.Frames = append(finding.Frames, FrameContext{Frame: frame.String()})
		}
		report.Leaks = append(report.Leaks, finding)
		report.TotalBytes += leak.Bytes
	}
	return report
}
