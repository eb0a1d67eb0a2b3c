package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Validate checks the configuration and override files without touching
// any repository host.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	configPath := strings.TrimSpace(req.ConfigPath)
	if configPath == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project config path is required")
	}
	cfg, err := s.ConfigLoader.LoadConfig(configPath)
	if err != nil {
		return ValidateResult{}, err
	}
	registry := recognizerRegistry()
	result := ValidateResult{Origin: cfg.Origin}
	for _, section := range cfg.Sections {
		backend, err := registry.Resolve(section.Type)
		if err != nil {
			return ValidateResult{}, err
		}
		for _, entry := range section.Entries {
			if entry.Structured && len(entry.Subsets) == 0 {
				return ValidateResult{}, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(section.Type + ": " + entry.Base + " selects no repositories")
			}
		}
		result.Sections = append(result.Sections, ValidateSection{
			Type:    section.Type,
			Backend: backend.Kind,
			Entries: len(section.Entries),
		})
	}

	files, err := s.OverrideLoader.LoadOverrides(req.OverrideFiles)
	if err != nil {
		return ValidateResult{}, err
	}
	for _, file := range files {
		for _, repo := range file.Repos {
			result.OverrideRules += len(repo.Branches)
		}
	}
	log.Ctx(ctx).Debug().
		Int("sections", len(result.Sections)).
		Int("override_rules", result.OverrideRules).
		Msg("configuration validated")
	return result, nil
}
