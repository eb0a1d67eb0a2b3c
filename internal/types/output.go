package types

type ProjectRecord struct {
	Name             string   `yaml:"name"`
	Component        string   `yaml:"component"`
	KDEComponent     string   `yaml:"kdecomponent,omitempty"`
	PackagingSCM     SCM      `yaml:"packaging_scm"`
	UpstreamSCM      *SCM     `yaml:"upstream_scm"`
	ProvidedBinaries []string `yaml:"provided_binaries,omitempty"`
	Dependencies     []string `yaml:"dependencies,omitempty"`
	Dependees        []string `yaml:"dependees,omitempty"`
	SeriesBranches   []string `yaml:"series_branches,omitempty"`
	Autopkgtest      bool     `yaml:"autopkgtest"`
	Native           bool     `yaml:"native"`
	Debian           bool     `yaml:"debian"`
	SnapcraftPath    string   `yaml:"snapcraft,omitempty"`
}

type ProjectsFile struct {
	Projects []ProjectRecord `yaml:"projects"`
}

type SkipRecord struct {
	Project string `yaml:"project"`
	Kind    string `yaml:"kind"`
	Reason  string `yaml:"reason"`
}

type BinaryCollision struct {
	Binary string `yaml:"binary"`
	Winner string `yaml:"winner"`
	Loser  string `yaml:"loser"`
}

type BatchReport struct {
	Built      int               `yaml:"built"`
	Skipped    []SkipRecord      `yaml:"skipped"`
	Aborted    []SkipRecord      `yaml:"aborted"`
	Collisions []BinaryCollision `yaml:"collisions,omitempty"`
}
