package core

import (
	"strings"

	"pangea-projects/internal/policies"
	"pangea-projects/internal/types"
)

// OverrideResolver merges cascading override files for a descriptor.
// Later files take precedence per member field.
type OverrideResolver struct {
	files []compiledOverrideFile
}

type compiledOverrideFile struct {
	path  string
	repos []compiledRepoRule
}

type compiledRepoRule struct {
	pattern  policies.Pattern
	branches []compiledBranchRule
}

type compiledBranchRule struct {
	pattern policies.Pattern
	rules   types.OverrideRules
}

func NewOverrideResolver(files []types.OverrideFile) *OverrideResolver {
	resolver := &OverrideResolver{}
	for _, file := range files {
		compiled := compiledOverrideFile{path: file.Path}
		for _, repo := range file.Repos {
			rule := compiledRepoRule{pattern: policies.NewPattern(repo.Pattern)}
			for _, branch := range repo.Branches {
				rule.branches = append(rule.branches, compiledBranchRule{
					pattern: policies.NewPattern(branch.Pattern),
					rules:   branch.Rules,
				})
			}
			compiled.repos = append(compiled.repos, rule)
		}
		resolver.files = append(resolver.files, compiled)
	}
	return resolver
}

// RulesFor returns the merged override rules for scm. Within one file
// only the most specific url pattern and, below it, the most specific
// branch pattern contribute.
func (r *OverrideResolver) RulesFor(scm types.SCM) types.OverrideRules {
	merged := types.OverrideRules{}
	if r == nil {
		return merged
	}
	for _, file := range r.files {
		rules, ok := file.rulesFor(scm)
		if !ok {
			continue
		}
		mergeOverrideRules(merged, rules)
	}
	return merged
}

func (f compiledOverrideFile) rulesFor(scm types.SCM) (types.OverrideRules, bool) {
	schemeless := stripScheme(scm.URL)
	var repo *compiledRepoRule
	for i := range f.repos {
		candidate := &f.repos[i]
		if !candidate.pattern.Matches(scm.URL) && !candidate.pattern.Matches(schemeless) {
			continue
		}
		if repo == nil || candidate.pattern.Compare(repo.pattern) < 0 {
			repo = candidate
		}
	}
	if repo == nil {
		return nil, false
	}
	var branch *compiledBranchRule
	for i := range repo.branches {
		candidate := &repo.branches[i]
		if !candidate.pattern.Matches(scm.Branch) {
			continue
		}
		if branch == nil || candidate.pattern.Compare(branch.pattern) < 0 {
			branch = candidate
		}
	}
	if branch == nil {
		return nil, false
	}
	return branch.rules, true
}

func mergeOverrideRules(dst types.OverrideRules, src types.OverrideRules) {
	for member, override := range src {
		if override.Null {
			dst[member] = types.MemberOverride{Null: true}
			continue
		}
		existing, ok := dst[member]
		if !ok || existing.Null {
			existing = types.MemberOverride{Fields: map[string]*string{}}
		}
		for field, value := range override.Fields {
			if value == nil {
				existing.Fields[field] = nil
				continue
			}
			copied := *value
			existing.Fields[field] = &copied
		}
		dst[member] = existing
	}
}

func stripScheme(url string) string {
	if idx := strings.Index(url, "://"); idx >= 0 {
		return url[idx+3:]
	}
	return url
}
