package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const (
	ProjectsFileName = "projects.yaml"
	ReportFileName   = "projects.report"
)

type OutputFileAdapter struct{}

func NewOutputFileAdapter() OutputFileAdapter {
	return OutputFileAdapter{}
}

func (a OutputFileAdapter) WriteProjects(dir string, projects []*types.Project) (string, error) {
	path, err := ensureOutputPath(dir, ProjectsFileName)
	if err != nil {
		return "", err
	}
	file := types.ProjectsFile{Projects: make([]types.ProjectRecord, 0, len(projects))}
	for _, project := range projects {
		file.Projects = append(file.Projects, ProjectRecord(project))
	}
	return path, writeYAML(path, file)
}

func (a OutputFileAdapter) WriteReport(dir string, report types.BatchReport) (string, error) {
	path, err := ensureOutputPath(dir, ReportFileName)
	if err != nil {
		return "", err
	}
	return path, writeYAML(path, report)
}

// ProjectRecord flattens a project, naming its graph neighbours by id.
func ProjectRecord(project *types.Project) types.ProjectRecord {
	record := types.ProjectRecord{
		Name:             project.Name,
		Component:        project.Component,
		KDEComponent:     string(project.KDEComponent),
		PackagingSCM:     project.PackagingSCM,
		UpstreamSCM:      project.UpstreamSCM,
		ProvidedBinaries: project.ProvidedBinaries,
		SeriesBranches:   project.SeriesBranches,
		Autopkgtest:      project.Autopkgtest,
		Native:           project.Native,
		Debian:           project.Debian,
		SnapcraftPath:    project.SnapcraftPath,
	}
	for _, dep := range project.Dependencies {
		record.Dependencies = append(record.Dependencies, dep.ID())
	}
	for _, dependee := range project.Dependees {
		record.Dependees = append(record.Dependees, dependee.ID())
	}
	return record
}

func writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode " + filepath.Base(path)).
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + path).
			WithCause(err)
	}
	return nil
}

func ensureOutputPath(dir string, filename string) (string, error) {
	if dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(dir, filename), nil
}

var _ ports.OutputPort = OutputFileAdapter{}
