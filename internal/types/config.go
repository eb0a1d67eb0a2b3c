package types

type FactoryConfig struct {
	Path     string
	Origin   Origin
	Sections []FactorySection
}

type FactorySection struct {
	Type    string
	Entries []FactoryEntry
}

// FactoryEntry is either a plain repository path or a {base: [subset]}
// enumeration, depending on Structured.
type FactoryEntry struct {
	Path       string
	Structured bool
	Base       string
	Subsets    []SubsetRule
}

type SubsetRule struct {
	Pattern string
	Branch  string
	Exclude bool
}

type PoisonPill struct {
	Component string `mapstructure:"component" yaml:"component"`
	Name      string `mapstructure:"name" yaml:"name"`
}
