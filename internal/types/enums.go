package types

type SCMKind string

const (
	SCMKindGit     SCMKind = "git"
	SCMKindBzr     SCMKind = "bzr"
	SCMKindSVN     SCMKind = "svn"
	SCMKindTarball SCMKind = "tarball"
	SCMKindUscan   SCMKind = "uscan"
)

// SupportsBranch reports whether descriptors of this kind carry a branch.
func (k SCMKind) SupportsBranch() bool {
	switch k {
	case SCMKindGit, SCMKindSVN:
		return true
	default:
		return false
	}
}

func (k SCMKind) Valid() bool {
	switch k {
	case SCMKindGit, SCMKindBzr, SCMKindSVN, SCMKindTarball, SCMKindUscan:
		return true
	default:
		return false
	}
}

type Origin string

const (
	OriginUnstable Origin = "unstable"
	OriginStable   Origin = "stable"
)

func (o Origin) Valid() bool {
	return o == OriginUnstable || o == OriginStable
}

type TaxonomyBucket string

const (
	TaxonomyFrameworks   TaxonomyBucket = "frameworks"
	TaxonomyApplications TaxonomyBucket = "applications"
	TaxonomyPlasma       TaxonomyBucket = "plasma"
	TaxonomyExtragear    TaxonomyBucket = "extragear"
)

type BackendKind string

const (
	BackendGitolite  BackendKind = "gitolite"
	BackendSSHFind   BackendKind = "ssh-find"
	BackendGitHub    BackendKind = "github"
	BackendGitLab    BackendKind = "gitlab"
	BackendLaunchpad BackendKind = "launchpad"
	BackendMirror    BackendKind = "release-mirror"
)

// ComponentLaunchpad is the component every Launchpad project lives in.
const ComponentLaunchpad = "launchpad"

const (
	MemberPackagingSCM = "packaging_scm"
	MemberUpstreamSCM  = "upstream_scm"
)

const (
	FieldType   = "type"
	FieldURL    = "url"
	FieldBranch = "branch"
)
