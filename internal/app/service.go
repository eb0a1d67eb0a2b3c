package app

import (
	"time"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/ports"
)

type Service struct {
	ConfigLoader   ports.ProjectConfigPort
	OverrideLoader ports.OverrideLoaderPort
	Packaging      ports.PackagingParserPort
	Output         ports.OutputPort
	OutputReader   ports.OutputReaderPort
	Clock          func() time.Time
}

func NewService() Service {
	return Service{
		ConfigLoader:   adapters.NewProjectConfigFileAdapter(),
		OverrideLoader: adapters.NewOverrideFileAdapter(),
		Packaging:      adapters.NewDebianControlAdapter(),
		Output:         adapters.NewOutputFileAdapter(),
		OutputReader:   adapters.NewOutputReaderAdapter(),
		Clock:          time.Now,
	}
}
