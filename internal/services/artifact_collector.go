package services

// ArtifactCollector discovers the files a download run produced
type ArtifactCollector interface {
	// Collect lists regular files under dir in lexicographic order of their
	// relative path. When prefixes are given, only files whose base name starts
	// with one of them are returned. A missing or empty dir yields an empty
	// slice and no error.
	Collect(dir string, prefixes ...string) ([]string, error)
}
