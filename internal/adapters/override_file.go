package adapters

import (
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"pangea-projects/internal/policies"
	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const yamlNullTag = "!!null"

// OverrideFileAdapter loads override files in the order given. Explicit
// nulls survive loading so they can replace earlier values.
type OverrideFileAdapter struct{}

func NewOverrideFileAdapter() OverrideFileAdapter {
	return OverrideFileAdapter{}
}

func (a OverrideFileAdapter) LoadOverrides(paths []string) ([]types.OverrideFile, error) {
	files := make([]types.OverrideFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("override file not found: " + path).
				WithCause(err)
		}
		file, err := ParseOverrideFile(data)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid override file " + path).
				WithCause(err)
		}
		file.Path = path
		files = append(files, file)
	}
	return files, nil
}

func ParseOverrideFile(data []byte) (types.OverrideFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.OverrideFile{}, err
	}
	file := types.OverrideFile{}
	if len(doc.Content) == 0 {
		return file, nil
	}
	root := doc.Content[0]
	if root.Tag == yamlNullTag {
		return file, nil
	}
	if root.Kind != yaml.MappingNode {
		return file, fmt.Errorf("line %d: overrides must be a mapping of url patterns", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		repo := types.OverrideRepoRule{Pattern: root.Content[i].Value}
		branches := root.Content[i+1]
		if branches.Kind != yaml.MappingNode {
			return file, fmt.Errorf("line %d: %s must map branch patterns", branches.Line, repo.Pattern)
		}
		for j := 0; j+1 < len(branches.Content); j += 2 {
			branch := types.OverrideBranchRule{Pattern: branches.Content[j].Value}
			rules, err := parseOverrideRules(branches.Content[j+1])
			if err != nil {
				return file, fmt.Errorf("%s %s: %w", repo.Pattern, branch.Pattern, err)
			}
			branch.Rules = rules
			repo.Branches = append(repo.Branches, branch)
		}
		file.Repos = append(file.Repos, repo)
	}
	return file, nil
}

func parseOverrideRules(node *yaml.Node) (types.OverrideRules, error) {
	rules := types.OverrideRules{}
	if node.Tag == yamlNullTag {
		return rules, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: rules must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		member := node.Content[i].Value
		value := node.Content[i+1]
		if value.Tag == yamlNullTag {
			rules[member] = types.MemberOverride{Null: true}
			continue
		}
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: %s must be a mapping or null", value.Line, member)
		}
		override := types.MemberOverride{Fields: map[string]*string{}}
		for j := 0; j+1 < len(value.Content); j += 2 {
			field := value.Content[j].Value
			fieldValue := value.Content[j+1]
			switch {
			case fieldValue.Tag == yamlNullTag:
				override.Fields[field] = nil
			case fieldValue.Kind == yaml.ScalarNode:
				text := fieldValue.Value
				override.Fields[field] = &text
			default:
				return nil, fmt.Errorf("line %d: %s.%s must be a scalar", fieldValue.Line, member, field)
			}
		}
		rules[member] = override
	}
	if err := policies.ValidateOverrideRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

var _ ports.OverrideLoaderPort = OverrideFileAdapter{}
