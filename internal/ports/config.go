package ports

import "pangea-projects/internal/types"

type ProjectConfigPort interface {
	LoadConfig(path string) (types.FactoryConfig, error)
}

type OverrideLoaderPort interface {
	LoadOverrides(paths []string) ([]types.OverrideFile, error)
}
