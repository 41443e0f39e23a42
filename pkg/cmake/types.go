package cmake

// TargetKind is the target type reported by the CMake File API
// codemodel.
type TargetKind string

const (
	KindExecutable       TargetKind = "EXECUTABLE"
	KindStaticLibrary    TargetKind = "STATIC_LIBRARY"
	KindSharedLibrary    TargetKind = "SHARED_LIBRARY"
	KindObjectLibrary    TargetKind = "OBJECT_LIBRARY"
	KindModuleLibrary    TargetKind = "MODULE_LIBRARY"
	KindInterfaceLibrary TargetKind = "INTERFACE_LIBRARY"
	KindUtility          TargetKind = "UTILITY"
)

// BuildType selects the configuration passed to cmake --config.
type BuildType string

const (
	BuildDebug   BuildType = "Debug"
	BuildRelease BuildType = "Release"
)

// Target is one build target resolved from the codemodel, with artifact
// paths made absolute against the build directory.
type Target struct {
	Name      string     `json:"name"`
	Kind      TargetKind `json:"kind"`
	Artifacts []string   `json:"artifacts,omitempty"`
}

// File API reply documents. Only the fields the resolver needs are
// modelled; the reply carries much more.

type indexFile struct {
	Objects []indexObject `json:"objects"`
}

type indexObject struct {
	Kind     string `json:"kind"`
	JSONFile string `json:"jsonFile"`
	Version  struct {
		Major int `json:"major"`
	} `json:"version"`
}

type codemodelFile struct {
	Configurations []codemodelConfig `json:"configurations"`
}

type codemodelConfig struct {
	Name    string               `json:"name"`
	Targets []codemodelTargetRef `json:"targets"`
}

type codemodelTargetRef struct {
	Name     string `json:"name"`
	JSONFile string `json:"jsonFile"`
}

type targetFile struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Artifacts []struct {
		Path string `json:"path"`
	} `json:"artifacts"`
}
