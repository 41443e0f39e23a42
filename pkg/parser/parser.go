package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// Function is one C function definition found in the source tree.
type Function struct {
	ID                        string `json:"id"`
	Filename                  string `json:"file"`
	Name                      string `json:"name"`
	StartLine                 int    `json:"start"`
	EndLine                   int    `json:"end"`
	Definition                string `json:"def"`
	DefinitionWithLineNumbers string `json:"def_ln"`
}

type AnalysisResult struct {
	Functions []Function `json:"functions"`
}

func analyzeDirectory(dir string) (*AnalysisResult, error) {
	result := &AnalysisResult{Functions: []Function{}}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if strings.HasSuffix(path, ".c") || strings.HasSuffix(path, ".h") {
			functions, err := analyzeCFile(path)
			if err != nil {
				return nil
			}
			result.Functions = append(result.Functions, functions...)
		}

		return nil
	})

	return result, err
}

func analyzeCFile(filename string) ([]Function, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	language := sitter.NewLanguage(tree_sitter_c.Language())
	err = parser.SetLanguage(language)
	if err != nil {
		return nil, err
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file: %s", filename)
	}

	return findFunctionDefinitions(tree.RootNode(), content, filename), nil
}

func findFunctionDefinitions(node *sitter.Node, content []byte, filename string) []Function {
	var functions []Function

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "function_definition" {
			function := analyzeFunctionDefinition(child, content, filename)
			if function != nil {
				functions = append(functions, *function)
			}
		}
		functions = append(functions, findFunctionDefinitions(child, content, filename)...)
	}

	return functions
}

func analyzeFunctionDefinition(node *sitter.Node, content []byte, filename string) *Function {
	declarator := findDeclarator(node)
	if declarator == nil {
		return nil
	}
	identifier := findChildByType(declarator, "identifier")
	if identifier == nil {
		return nil
	}

	startLine := int(node.StartPosition().Row) + 1
	defText := getNodeText(node, content)
	name := getNodeText(identifier, content)

	return &Function{
		ID:                        fmt.Sprintf("%s:%d:%s", filename, startLine, name),
		Filename:                  filename,
		Name:                      name,
		StartLine:                 startLine,
		EndLine:                   int(node.EndPosition().Row) + 1,
		Definition:                defText,
		DefinitionWithLineNumbers: addLineNumbers(defText, startLine),
	}
}

// findDeclarator digs the function_declarator out of a definition,
// descending through pointer declarators for functions returning
// pointer types.
func findDeclarator(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "function_declarator":
			return child
		case "pointer_declarator":
			if declarator := findDeclarator(child); declarator != nil {
				return declarator
			}
		}
	}
	return nil
}

func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

func getNodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

// addLineNumbers prefixes each line with its right-aligned source line
// number, "NNNNN  code".
func addLineNumbers(text string, startLine int) string {
	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		result.WriteString(fmt.Sprintf("%5d  %s", startLine+i, line))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

// Simple cache for parsed analysis results
var (
	cache      = make(map[string]*AnalysisResult)
	cacheMutex sync.RWMutex
)

// GetCachedAnalysisResult returns cached analysis result for a directory, parsing if needed
func GetCachedAnalysisResult(directory string) (*AnalysisResult, error) {
	cacheMutex.RLock()
	if result, exists := cache[directory]; exists {
		cacheMutex.RUnlock()
		return result, nil
	}
	cacheMutex.RUnlock()

	result, err := analyzeDirectory(directory)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[directory] = result
	cacheMutex.Unlock()

	return result, nil
}

// FindFunctionAt returns the function whose definition spans the given
// line of the given file. The file is matched on its path suffix, since
// valgrind frames carry the base name while the index stores full
// paths.
func FindFunctionAt(directory, file string, line int) (*Function, error) {
	result, err := GetCachedAnalysisResult(directory)
	if err != nil {
		return nil, err
	}

	for i := range result.Functions {
		function := &result.Functions[i]
		if !sameFile(function.Filename, file) {
			continue
		}
		if line >= function.StartLine && line <= function.EndLine {
			return function, nil
		}
	}

	return nil, fmt.Errorf("no function at %s:%d", file, line)
}

func sameFile(indexed, reported string) bool {
	if indexed == reported {
		return true
	}
	return strings.HasSuffix(indexed, string(filepath.Separator)+reported)
}
