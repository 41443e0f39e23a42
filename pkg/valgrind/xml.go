package valgrind

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
)

// Intermediate model of the memcheck XML protocol. It mirrors the wire
// format exactly, including fields the domain model drops again
// (instruction pointer, object file). Optional elements are pointers so
// that absence survives decoding. Elements not modelled here are
// ignored by encoding/xml, which keeps newer valgrind versions parsing.
type xmlReport struct {
	XMLName xml.Name   `xml:"valgrindoutput"`
	Errors  []xmlError `xml:"error"`
}

type xmlError struct {
	Kind  string    `xml:"kind"`
	XWhat *xmlXWhat `xml:"xwhat"`
	Stack xmlStack  `xml:"stack"`
}

type xmlXWhat struct {
	Text         string `xml:"text"`
	LeakedBytes  uint64 `xml:"leakedbytes"`
	LeakedBlocks uint64 `xml:"leakedblocks"`
}

type xmlStack struct {
	Frames []xmlFrame `xml:"frame"`
}

type xmlFrame struct {
	IP     string  `xml:"ip"`
	Object *string `xml:"obj"`
	Fn     *string `xml:"fn"`
	Dir    *string `xml:"dir"`
	File   *string `xml:"file"`
	Line   *uint64 `xml:"line"`
}

// parseReport decodes a full memcheck XML document from r. A report
// with zero error elements is valid. Structurally invalid or truncated
// XML fails with ErrMalformed; I/O failures on the underlying stream
// fail with ErrTransport.
func parseReport(r io.Reader) (*xmlReport, error) {
	var report xmlReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		// A failure of the underlying stream is a transport problem;
		// everything else, including truncation, is a bad document.
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, fmt.Errorf("%w: read report stream: %w", ErrTransport, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for _, e := range report.Errors {
		if !knownKinds[Kind(e.Kind)] {
			return nil, fmt.Errorf("%w: unknown error kind %q", ErrMalformed, e.Kind)
		}
	}

	// The document is complete; drain whatever trails it so the child
	// side never blocks on a full socket buffer.
	_, _ = io.Copy(io.Discard, r)

	return &report, nil
}

// extractLeaks maps the wire-level report into the public leak model,
// preserving the report's error and frame order. Raw-frame fields that
// are not part of the domain model are dropped here.
func extractLeaks(report *xmlReport) []Leak {
	leaks := make([]Leak, 0, len(report.Errors))
	for _, e := range report.Errors {
		var bytes uint64
		if e.XWhat != nil {
			bytes = e.XWhat.LeakedBytes
		}
		frames := make([]Function, 0, len(e.Stack.Frames))
		for _, frame := range e.Stack.Frames {
			frames = append(frames, Function{
				Name: frame.Fn,
				File: frame.File,
				Line: frame.Line,
			})
		}
		leaks = append(leaks, Leak{
			Bytes:      bytes,
			Kind:       Kind(e.Kind),
			StackTrace: frames,
		})
	}
	return leaks
}
