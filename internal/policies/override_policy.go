package policies

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/types"
)

var overrideFields = map[string]map[string]bool{
	types.MemberPackagingSCM: {types.FieldType: true, types.FieldURL: true, types.FieldBranch: true},
	types.MemberUpstreamSCM:  {types.FieldType: true, types.FieldURL: true, types.FieldBranch: true},
}

// fieldOrder makes a kind change land before url and branch.
var fieldOrder = []string{types.FieldType, types.FieldURL, types.FieldBranch}

var templateExpr = regexp.MustCompile(`<%=\s*([A-Za-z_][A-Za-z0-9_.]*)\s*%>|#\{\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\}`)

// ValidateOverrideRules rejects members and fields that cannot be applied.
func ValidateOverrideRules(rules types.OverrideRules) error {
	for _, member := range sortedMembers(rules) {
		fields, ok := overrideFields[member]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unknown override member: " + member)
		}
		override := rules[member]
		if override.Null {
			if member == types.MemberPackagingSCM {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("packaging_scm cannot be overridden with null")
			}
			continue
		}
		for field, value := range override.Fields {
			if !fields[field] {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("unknown override field: %s.%s", member, field))
			}
			if field == types.FieldURL && value == nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("override field %s.url cannot be null", member))
			}
			if field == types.FieldType && value != nil && !templateExpr.MatchString(*value) && !types.SCMKind(*value).Valid() {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("override field %s.type has unknown kind %q", member, *value))
			}
		}
	}
	return nil
}

// ApplyOverride applies one member of rules to project. A member that
// is nulled drops the descriptor; a member targeting an absent
// descriptor is left alone.
func ApplyOverride(project *types.Project, member string, override types.MemberOverride) error {
	var target *types.SCM
	switch member {
	case types.MemberPackagingSCM:
		if override.Null {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("packaging_scm cannot be overridden with null")
		}
		target = &project.PackagingSCM
	case types.MemberUpstreamSCM:
		if override.Null {
			project.UpstreamSCM = nil
			return nil
		}
		target = project.UpstreamSCM
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown override member: " + member)
	}
	for field := range override.Fields {
		if !overrideFields[member][field] {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unknown override field: %s.%s", member, field))
		}
	}
	if target == nil {
		return nil
	}
	vars := TemplateVars(project)
	scm := *target
	for _, field := range fieldOrder {
		value, ok := override.Fields[field]
		if !ok {
			continue
		}
		if err := applySCMField(&scm, field, value, vars); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("override %s.%s failed", member, field)).
				WithCause(err)
		}
	}
	*target = scm.Normalize()
	return nil
}

func applySCMField(scm *types.SCM, field string, value *string, vars map[string]string) error {
	rendered := ""
	if value != nil {
		out, err := RenderTemplate(*value, vars)
		if err != nil {
			return err
		}
		rendered = out
	}
	switch field {
	case types.FieldType:
		kind := types.SCMKind(rendered)
		if !kind.Valid() {
			return fmt.Errorf("unknown scm kind %q", rendered)
		}
		scm.Kind = kind
	case types.FieldURL:
		if rendered == "" {
			return fmt.Errorf("url cannot be empty")
		}
		scm.URL = rendered
	case types.FieldBranch:
		scm.Branch = rendered
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// RenderTemplate substitutes `<%= var %>` and `#{var}` references from
// vars. Nothing else is evaluated.
func RenderTemplate(value string, vars map[string]string) (string, error) {
	rest := templateExpr.ReplaceAllString(value, "")
	if strings.Contains(rest, "<%") || strings.Contains(rest, "#{") {
		return "", fmt.Errorf("unsupported template expression in %q", value)
	}
	var missing string
	out := templateExpr.ReplaceAllStringFunc(value, func(expr string) string {
		groups := templateExpr.FindStringSubmatch(expr)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		replacement, ok := vars[name]
		if !ok && missing == "" {
			missing = name
		}
		return replacement
	})
	if missing != "" {
		return "", fmt.Errorf("unknown template variable %q in %q", missing, value)
	}
	return out, nil
}

// TemplateVars exposes the project fields override values may reference.
func TemplateVars(project *types.Project) map[string]string {
	vars := map[string]string{
		"name":                 project.Name,
		"component":            project.Component,
		"kdecomponent":         string(project.KDEComponent),
		"packaging_scm.type":   string(project.PackagingSCM.Kind),
		"packaging_scm.url":    project.PackagingSCM.URL,
		"packaging_scm.branch": project.PackagingSCM.Branch,
	}
	if project.UpstreamSCM != nil {
		vars["upstream_scm.type"] = string(project.UpstreamSCM.Kind)
		vars["upstream_scm.url"] = project.UpstreamSCM.URL
		vars["upstream_scm.branch"] = project.UpstreamSCM.Branch
	}
	return vars
}

func sortedMembers(rules types.OverrideRules) []string {
	members := make([]string, 0, len(rules))
	for member := range rules {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
