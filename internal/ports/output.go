package ports

import "pangea-projects/internal/types"

type OutputPort interface {
	WriteProjects(dir string, projects []*types.Project) (string, error)
	WriteReport(dir string, report types.BatchReport) (string, error)
}

type OutputReaderPort interface {
	ReadProjects(path string) (types.ProjectsFile, error)
	ReadReport(path string) (types.BatchReport, error)
}

type MetricsPort interface {
	ObserveReport(report types.BatchReport, seconds float64)
	ObserveRetry(operation string)
	Flush(path string) error
}
