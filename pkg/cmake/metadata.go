// Package cmake resolves the runnable binaries of a CMake project from
// the File API codemodel and drives builds through the cmake CLI.
package cmake

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Resolver answers questions about a configured CMake build directory.
type Resolver struct {
	BuildDir string
	CMakeBin string
}

// NewResolver creates a resolver for the given build directory. An
// empty cmakeBin resolves "cmake" from PATH.
func NewResolver(buildDir, cmakeBin string) (*Resolver, error) {
	if _, err := os.Stat(buildDir); err != nil {
		return nil, fmt.Errorf("build directory not found: %s", buildDir)
	}

	if cmakeBin == "" {
		var err error
		cmakeBin, err = exec.LookPath("cmake")
		if err != nil {
			return nil, fmt.Errorf("cmake binary not found in PATH: %w", err)
		}
	}

	return &Resolver{
		BuildDir: buildDir,
		CMakeBin: cmakeBin,
	}, nil
}

// EnsureQuery writes the File API query that makes the next cmake
// configure run emit the codemodel reply.
func EnsureQuery(buildDir string) error {
	queryDir := filepath.Join(buildDir, ".cmake", "api", "v1", "query")
	if err := os.MkdirAll(queryDir, 0o755); err != nil {
		return fmt.Errorf("failed to create file-api query directory: %w", err)
	}
	query := filepath.Join(queryDir, "codemodel-v2")
	if err := os.WriteFile(query, nil, 0o644); err != nil {
		return fmt.Errorf("failed to write file-api query: %w", err)
	}
	return nil
}

// Targets returns every target of the given configuration. An empty
// config selects the first configuration in the codemodel, which for
// single-config generators is the only one.
func (r *Resolver) Targets(config string) ([]Target, error) {
	replyDir := filepath.Join(r.BuildDir, ".cmake", "api", "v1", "reply")

	index, err := r.loadIndex(replyDir)
	if err != nil {
		return nil, err
	}

	var codemodelPath string
	for _, obj := range index.Objects {
		if obj.Kind == "codemodel" && obj.Version.Major == 2 {
			codemodelPath = filepath.Join(replyDir, obj.JSONFile)
			break
		}
	}
	if codemodelPath == "" {
		return nil, fmt.Errorf("no codemodel-v2 object in file-api reply; configure with the codemodel query present")
	}

	var codemodel codemodelFile
	if err := readJSON(codemodelPath, &codemodel); err != nil {
		return nil, err
	}

	cfg, err := pickConfig(codemodel.Configurations, config)
	if err != nil {
		return nil, err
	}

	targets := make([]Target, 0, len(cfg.Targets))
	for _, ref := range cfg.Targets {
		var raw targetFile
		if err := readJSON(filepath.Join(replyDir, ref.JSONFile), &raw); err != nil {
			return nil, err
		}
		target := Target{
			Name: raw.Name,
			Kind: TargetKind(raw.Type),
		}
		for _, artifact := range raw.Artifacts {
			path := artifact.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(r.BuildDir, path)
			}
			target.Artifacts = append(target.Artifacts, path)
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// Executables returns the runnable binary targets of the configuration.
// Library and utility targets are filtered out.
func (r *Resolver) Executables(config string) ([]Target, error) {
	targets, err := r.Targets(config)
	if err != nil {
		return nil, err
	}

	var executables []Target
	for _, target := range targets {
		if target.Kind == KindExecutable && len(target.Artifacts) > 0 {
			executables = append(executables, target)
		}
	}
	return executables, nil
}

// Executable resolves the artifact path of a single named target. A
// target that exists but produces no runnable binary is a recoverable
// error, not a crash.
func (r *Resolver) Executable(name, config string) (string, error) {
	targets, err := r.Targets(config)
	if err != nil {
		return "", err
	}

	for _, target := range targets {
		if target.Name != name {
			continue
		}
		if target.Kind != KindExecutable {
			return "", fmt.Errorf("target %s is not a runnable binary (kind %s)", name, target.Kind)
		}
		if len(target.Artifacts) == 0 {
			return "", fmt.Errorf("target %s has no build artifacts", name)
		}
		return target.Artifacts[0], nil
	}

	return "", fmt.Errorf("target %s not found in codemodel", name)
}

// loadIndex reads the current reply index. The File API names index
// files so that the lexically greatest one is the newest.
func (r *Resolver) loadIndex(replyDir string) (*indexFile, error) {
	entries, err := os.ReadDir(replyDir)
	if err != nil {
		return nil, fmt.Errorf("no file-api reply in %s: %w", r.BuildDir, err)
	}

	var indexName string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "index-") && strings.HasSuffix(name, ".json") && name > indexName {
			indexName = name
		}
	}
	if indexName == "" {
		return nil, fmt.Errorf("no file-api index in %s", replyDir)
	}

	var index indexFile
	if err := readJSON(filepath.Join(replyDir, indexName), &index); err != nil {
		return nil, err
	}
	return &index, nil
}

func pickConfig(configs []codemodelConfig, name string) (*codemodelConfig, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("codemodel has no configurations")
	}
	if name == "" {
		return &configs[0], nil
	}
	for i := range configs {
		if configs[i].Name == name {
			return &configs[i], nil
		}
	}

	known := make([]string, 0, len(configs))
	for _, cfg := range configs {
		known = append(known, cfg.Name)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("configuration %q not found (have %s)", name, strings.Join(known, ", "))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file-api reply: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid file-api reply %s: %w", filepath.Base(path), err)
	}
	return nil
}
