package policies

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/types"
)

// ProjectPolicy holds the construction guards applied before and after
// a packaging repository is materialized.
type ProjectPolicy struct {
	PoisonPills []types.PoisonPill
	// NativeForbidden lists components that must always track a
	// separate upstream.
	NativeForbidden []string
}

func DefaultPoisonPills() []types.PoisonPill {
	return []types.PoisonPill{{Component: "kde-extras_kde-telepathy"}}
}

func DefaultNativeForbidden() []string {
	return []string{"applications", "frameworks", "plasma", "kde-extras"}
}

func NewProjectPolicy(pills []types.PoisonPill) ProjectPolicy {
	if pills == nil {
		pills = DefaultPoisonPills()
	}
	return ProjectPolicy{
		PoisonPills:     pills,
		NativeForbidden: DefaultNativeForbidden(),
	}
}

func (p ProjectPolicy) ValidateIdentity(name string, component string) error {
	if strings.TrimSpace(name) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project name is empty")
	}
	if strings.Contains(name, "/") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("project name contains a slash: %q", name))
	}
	if strings.Contains(component, "/") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("project component contains a slash: %q", component))
	}
	return nil
}

func (p ProjectPolicy) PoisonPill(name string, component string) error {
	for _, pill := range p.PoisonPills {
		if pill.Component != component {
			continue
		}
		if pill.Name != "" && pill.Name != name {
			continue
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("project %s/%s is permanently excluded", component, name))
	}
	return nil
}

func (p ProjectPolicy) CheckNative(component string, native bool) error {
	if !native {
		return nil
	}
	for _, forbidden := range p.NativeForbidden {
		if forbidden == component {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("native packaging is not allowed in component %s", component))
		}
	}
	return nil
}
