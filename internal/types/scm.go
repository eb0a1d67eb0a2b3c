package types

type SCM struct {
	Kind   SCMKind `yaml:"type"`
	URL    string  `yaml:"url"`
	Branch string  `yaml:"branch,omitempty"`
}

// NewSCM builds a descriptor, dropping the branch for kinds without one.
func NewSCM(kind SCMKind, url string, branch string) SCM {
	return SCM{Kind: kind, URL: url, Branch: branch}.Normalize()
}

func (s SCM) Normalize() SCM {
	if !s.Kind.SupportsBranch() {
		s.Branch = ""
	}
	return s
}

func (s SCM) String() string {
	if s.Branch == "" {
		return string(s.Kind) + " " + s.URL
	}
	return string(s.Kind) + " " + s.URL + "#" + s.Branch
}
