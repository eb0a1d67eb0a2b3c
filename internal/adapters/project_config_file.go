package adapters

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const originKey = "origin"

// ProjectConfigFileAdapter reads the factory configuration. Sections keep
// file order since backends are built in the order they are listed.
type ProjectConfigFileAdapter struct{}

func NewProjectConfigFileAdapter() ProjectConfigFileAdapter {
	return ProjectConfigFileAdapter{}
}

func (a ProjectConfigFileAdapter) LoadConfig(path string) (types.FactoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.FactoryConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("project config not found").
			WithCause(err)
	}
	cfg, err := ParseProjectConfig(data)
	if err != nil {
		return types.FactoryConfig{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid project config " + path).
			WithCause(err)
	}
	cfg.Path = path
	return cfg, nil
}

func ParseProjectConfig(data []byte) (types.FactoryConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.FactoryConfig{}, err
	}
	cfg := types.FactoryConfig{}
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return cfg, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value == originKey {
			origin := types.Origin(value.Value)
			if value.Kind != yaml.ScalarNode || !origin.Valid() {
				return cfg, fmt.Errorf("line %d: invalid origin %q", value.Line, value.Value)
			}
			cfg.Origin = origin
			continue
		}
		section, err := parseSection(key.Value, value)
		if err != nil {
			return cfg, err
		}
		cfg.Sections = append(cfg.Sections, section)
	}
	return cfg, nil
}

func parseSection(sectionType string, node *yaml.Node) (types.FactorySection, error) {
	section := types.FactorySection{Type: sectionType}
	if node.Kind != yaml.SequenceNode {
		return section, fmt.Errorf("line %d: %s must list its entries", node.Line, sectionType)
	}
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			if item.Tag == "!!null" || item.Value == "" {
				return section, fmt.Errorf("line %d: empty entry in %s", item.Line, sectionType)
			}
			section.Entries = append(section.Entries, types.FactoryEntry{Path: item.Value})
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				entry, err := parseStructuredEntry(item.Content[i].Value, item.Content[i+1])
				if err != nil {
					return section, err
				}
				section.Entries = append(section.Entries, entry)
			}
		default:
			return section, fmt.Errorf("line %d: unknown type for entry in %s", item.Line, sectionType)
		}
	}
	return section, nil
}

func parseStructuredEntry(base string, node *yaml.Node) (types.FactoryEntry, error) {
	entry := types.FactoryEntry{Structured: true, Base: base}
	if node.Kind != yaml.SequenceNode {
		return entry, fmt.Errorf("line %d: unknown type for %s subsets", node.Line, base)
	}
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			entry.Subsets = append(entry.Subsets, types.SubsetRule{Pattern: item.Value})
		case yaml.MappingNode:
			for i := 0; i+1 < len(item.Content); i += 2 {
				rule := types.SubsetRule{Pattern: item.Content[i].Value}
				options := item.Content[i+1]
				if options.Tag != "!!null" {
					if err := checkSubsetOptions(rule.Pattern, options); err != nil {
						return entry, err
					}
					var decoded struct {
						Branch  string `yaml:"branch"`
						Exclude bool   `yaml:"exclude"`
					}
					if err := options.Decode(&decoded); err != nil {
						return entry, fmt.Errorf("line %d: %w", options.Line, err)
					}
					rule.Branch = decoded.Branch
					rule.Exclude = decoded.Exclude
				}
				entry.Subsets = append(entry.Subsets, rule)
			}
		default:
			return entry, fmt.Errorf("line %d: unknown type for %s subset", item.Line, base)
		}
	}
	return entry, nil
}

// checkSubsetOptions rejects option keys other than branch and exclude.
func checkSubsetOptions(pattern string, options *yaml.Node) error {
	if options.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(options.Content); i += 2 {
		key := options.Content[i]
		switch key.Value {
		case "branch", "exclude":
		default:
			return fmt.Errorf("line %d: unknown option %q for subset %s", key.Line, key.Value, pattern)
		}
	}
	return nil
}

var _ ports.ProjectConfigPort = ProjectConfigFileAdapter{}
