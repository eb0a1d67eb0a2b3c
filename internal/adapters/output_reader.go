package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadProjects(path string) (types.ProjectsFile, error) {
	var file types.ProjectsFile
	if err := readYAML(path, &file); err != nil {
		return types.ProjectsFile{}, err
	}
	return file, nil
}

func (a OutputReaderAdapter) ReadReport(path string) (types.BatchReport, error) {
	var report types.BatchReport
	if err := readYAML(path, &report); err != nil {
		return types.BatchReport{}, err
	}
	return report, nil
}

func readYAML(path string, out any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(path + " not found").
			WithCause(err)
	}
	if err := yaml.Unmarshal(content, out); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid " + path).
			WithCause(err)
	}
	return nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
