package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleC = `#include <stdlib.h>

static char *buffer;

char *leaky(size_t n) {
    return malloc(n);
}

int main(void) {
    buffer = leaky(40);
    return 0;
}
`

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.c"), []byte(sampleC), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestAnalyzeDirectory(t *testing.T) {
	result, err := GetCachedAnalysisResult(writeSource(t))
	if err != nil {
		t.Fatalf("GetCachedAnalysisResult() error: %v", err)
	}

	if len(result.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(result.Functions))
	}

	leaky := result.Functions[0]
	if leaky.Name != "leaky" || leaky.StartLine != 5 || leaky.EndLine != 7 {
		t.Errorf("leaky = %+v", leaky)
	}
	if !strings.Contains(leaky.DefinitionWithLineNumbers, "    6  ") {
		t.Errorf("numbered definition missing line numbers:\n%s", leaky.DefinitionWithLineNumbers)
	}
}

func TestFindFunctionAt(t *testing.T) {
	dir := writeSource(t)

	// Frames report the base file name; the index stores full paths.
	function, err := FindFunctionAt(dir, "main.c", 6)
	if err != nil {
		t.Fatalf("FindFunctionAt() error: %v", err)
	}
	if function.Name != "leaky" {
		t.Errorf("function at line 6 = %s, want leaky", function.Name)
	}

	if _, err := FindFunctionAt(dir, "main.c", 3); err == nil {
		t.Error("line 3 is outside any function, want error")
	}
	if _, err := FindFunctionAt(dir, "other.c", 6); err == nil {
		t.Error("unknown file, want error")
	}
}
