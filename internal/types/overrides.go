package types

// MemberOverride holds the field values for one overridable member.
// A nil field value is an explicit null.
type MemberOverride struct {
	Null   bool
	Fields map[string]*string
}

type OverrideRules map[string]MemberOverride

type OverrideFile struct {
	Path  string
	Repos []OverrideRepoRule
}

type OverrideRepoRule struct {
	Pattern  string
	Branches []OverrideBranchRule
}

type OverrideBranchRule struct {
	Pattern string
	Rules   OverrideRules
}
