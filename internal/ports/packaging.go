package ports

import "pangea-projects/internal/types"

// PackagingParserPort reads packaging metadata from a checked out tree.
type PackagingParserPort interface {
	Parse(workdir string) (types.PackagingMetadata, error)
}
