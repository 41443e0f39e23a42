package report

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/noperator/memgrind/pkg/logging"
	"github.com/noperator/memgrind/pkg/parser"
	"github.com/noperator/memgrind/pkg/valgrind"
)

// Enricher attaches source context to leak frames by resolving each
// frame's file:line against a tree-sitter index of the source tree.
type Enricher struct {
	sourceDir string
	logger    *slog.Logger
}

// NewEnricher creates an enricher for the given source directory.
func NewEnricher(sourceDir string) *Enricher {
	return &Enricher{
		sourceDir: sourceDir,
		logger:    logging.NewLoggerFromEnv(),
	}
}

// Enrich builds the report for the run and fills in source context for
// every frame carrying file and line info. Leaks are processed by a
// worker pool; report order is preserved in the result.
func (e *Enricher) Enrich(binary string, leaks []valgrind.Leak, concurrency int) *Report {
	numWorkers := concurrency
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
		if numWorkers > 16 {
			numWorkers = 16
		}
	}
	e.logger.Debug("enriching leaks",
		"component", "report",
		"workers", numWorkers,
		"leaks", len(leaks))

	type workItem struct {
		index int
		leak  valgrind.Leak
	}

	workChan := make(chan workItem, len(leaks))
	findings := make([]Finding, len(leaks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				findings[item.index] = e.enrichLeak(item.leak)
			}
		}()
	}

	for i, leak := range leaks {
		workChan <- workItem{index: i, leak: leak}
	}
	close(workChan)
	wg.Wait()

	report := &Report{
		Binary: binary,
		Leaks:  findings,
	}
	for _, leak := range leaks {
		report.TotalBytes += leak.Bytes
	}
	return report
}

func (e *Enricher) enrichLeak(leak valgrind.Leak) Finding {
	finding := Finding{
		Leak:   leak,
		Frames: make([]FrameContext, 0, len(leak.StackTrace)),
	}

	for _, frame := range leak.StackTrace {
		context := FrameContext{Frame: frame.String()}

		if frame.File != nil && frame.Line != nil {
			line := int(*frame.Line)
			function, err := parser.FindFunctionAt(e.sourceDir, *frame.File, line)
			if err != nil {
				e.logger.Debug("no source context for frame",
					"component", "report",
					"frame", context.Frame,
					"error", err)
			} else {
				context.Definition = function.DefinitionWithLineNumbers
				snippet, err := lineFromFile(function.Filename, line)
				if err == nil {
					context.SourceLine = snippet
				}
			}
		}

		finding.Frames = append(finding.Frames, context)
	}

	return finding
}

// lineFromFile retrieves a specific line from a file.
func lineFromFile(filePath string, lineNum int) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	currentLine := 1

	for scanner.Scan() {
		if currentLine == lineNum {
			return strings.TrimSpace(scanner.Text()), nil
		}
		currentLine++
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("line %d not found in file %s", lineNum, filePath)
}
