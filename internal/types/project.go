package types

type Project struct {
	Name         string
	Component    string
	KDEComponent TaxonomyBucket

	PackagingSCM SCM
	UpstreamSCM  *SCM

	ProvidedBinaries []string
	// BuildDepends keeps the raw binary names in control file order.
	BuildDepends []string
	Dependencies []*Project
	Dependees    []*Project

	SeriesBranches []string
	Autopkgtest    bool
	Native         bool
	Debian         bool
	SnapcraftPath  string
}

func (p *Project) ID() string {
	if p.Component == "" {
		return p.Name
	}
	return p.Component + "/" + p.Name
}

type ProjectParams struct {
	Name                  string
	Component             string
	URLBase               string
	Branch                string
	Origin                Origin
	IgnoreMissingBranches bool
}

type PackagingMetadata struct {
	BuildDepends  []string
	Binaries      []string
	Autopkgtest   bool
	Native        bool
	Debian        bool
	SnapcraftPath string
}

type ReleaseProject struct {
	Identifier   string
	TrunkBranch  string
	StableBranch string
}
