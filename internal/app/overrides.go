package app

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/core"
	"pangea-projects/internal/types"
)

// Overrides reports the merged override rules the files yield for one
// packaging descriptor.
func (s Service) Overrides(req OverridesRequest) (OverridesResult, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return OverridesResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("url is required")
	}
	kind := types.SCMKind(req.Kind)
	if kind == "" {
		kind = types.SCMKindGit
	}
	if !kind.Valid() {
		return OverridesResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown scm type: " + req.Kind)
	}
	files, err := s.OverrideLoader.LoadOverrides(req.OverrideFiles)
	if err != nil {
		return OverridesResult{}, err
	}
	scm := types.NewSCM(kind, url, req.Branch)
	return OverridesResult{
		SCM:   scm,
		Rules: core.NewOverrideResolver(files).RulesFor(scm),
	}, nil
}
