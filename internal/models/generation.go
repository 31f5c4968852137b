package models

// GeneratedFileKind tells how an output file was produced
type GeneratedFileKind int

const (
	CopiedFile GeneratedFileKind = iota
	WovenFile
	FactoryFile
	ContainerFile
	ManifestFile
)

// String returns the string representation of the file kind
func (k GeneratedFileKind) String() string {
	switch k {
	case WovenFile:
		return "woven"
	case FactoryFile:
		return "factory"
	case ContainerFile:
		return "container"
	case ManifestFile:
		return "manifest"
	default:
		return "copied"
	}
}

// GeneratedFile is an output file relative to the output directory
type GeneratedFile struct {
	Path    string
	Kind    GeneratedFileKind
	Package string
	Content []byte
}

// GenerationStats summarizes a generation run
type GenerationStats struct {
	Profiles       int
	Beans          int
	AbstractBeans  int
	Edges          int
	Unresolved     int
	WovenMethods   int
	ProceedMethods int
	Files          int
}

// GenerationResult is everything the output writer needs
type GenerationResult struct {
	Files     []GeneratedFile
	Profiles  []string
	Providers []ProviderInfo
	Stats     GenerationStats
}

// ProviderInfo describes one generated factory function
type ProviderInfo struct {
	BeanID   string
	Ident    string
	Package  string
	PkgPath  string
	Scope    string
	Profiles []string
}

// Add appends a file to the result
func (r *GenerationResult) Add(file GeneratedFile) {
	r.Files = append(r.Files, file)
	r.Stats.Files = len(r.Files)
}

// File returns the generated file at path
func (r *GenerationResult) File(path string) (GeneratedFile, bool) {
	for _, file := range r.Files {
		if file.Path == path {
			return file, true
		}
	}
	return GeneratedFile{}, false
}
