package services

// Archiver packages artifacts into a single in-memory archive
type Archiver interface {
	// Archive builds a ZIP holding each path under its base name, in input
	// order. A missing path fails with *apperrors.ArchiveError.
	Archive(paths []string) ([]byte, error)
}
