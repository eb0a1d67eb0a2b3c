package app

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/types"
)

func (s Service) Inspect(req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	file, err := s.OutputReader.ReadProjects(filepath.Join(outputDir, adapters.ProjectsFileName))
	if err != nil {
		return InspectResult{}, err
	}
	report, err := s.OutputReader.ReadReport(filepath.Join(outputDir, adapters.ReportFileName))
	if err != nil {
		return InspectResult{}, err
	}

	summaries := summarizeProjects(file.Projects)
	return InspectResult{
		ProjectCount: len(file.Projects),
		Projects:     summaries,
		Components:   countComponents(file.Projects),
		Report:       report,
	}, nil
}

// summarizeProjects orders projects by dependee count, most depended on
// first.
func summarizeProjects(records []types.ProjectRecord) []InspectProjectSummary {
	summaries := make([]InspectProjectSummary, 0, len(records))
	for _, record := range records {
		id := record.Name
		if record.Component != "" {
			id = record.Component + "/" + record.Name
		}
		summaries = append(summaries, InspectProjectSummary{
			ID:           id,
			KDEComponent: record.KDEComponent,
			Dependencies: len(record.Dependencies),
			Dependees:    len(record.Dependees),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Dependees != summaries[j].Dependees {
			return summaries[i].Dependees > summaries[j].Dependees
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

func countComponents(records []types.ProjectRecord) map[string]int {
	counts := map[string]int{}
	for _, record := range records {
		counts[record.Component]++
	}
	return counts
}
