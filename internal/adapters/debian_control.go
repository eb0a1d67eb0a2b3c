package adapters

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"pault.ag/go/debian/control"
	"pault.ag/go/debian/dependency"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const snapcraftFile = "snapcraft.yaml"

// Qt ships its documentation build deps in Build-Depends-Indep, which
// would pull the whole documentation stack into the graph.
const qtSourceMarker = "-opensource-src"

type controlStanza struct {
	control.Paragraph
}

// DebianControlAdapter reads packaging metadata from debian/ in a
// checked out packaging tree.
type DebianControlAdapter struct{}

func NewDebianControlAdapter() DebianControlAdapter {
	return DebianControlAdapter{}
}

func (a DebianControlAdapter) Parse(workdir string) (types.PackagingMetadata, error) {
	meta := types.PackagingMetadata{}
	snapcraft, err := findSnapcraft(workdir)
	if err != nil {
		return meta, err
	}
	meta.SnapcraftPath = snapcraft

	file, err := os.Open(filepath.Join(workdir, "debian", "control"))
	if errors.Is(err, fs.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return meta, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open debian/control").
			WithCause(err)
	}
	defer file.Close()
	meta.Debian = true

	stanzas, err := parseControl(file)
	if err != nil {
		return meta, err
	}
	if len(stanzas) == 0 {
		return meta, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("debian/control has no source stanza")
	}
	source := stanzas[0].Values
	fields := []string{"Build-Depends"}
	if !strings.Contains(source["Source"], qtSourceMarker) {
		fields = append(fields, "Build-Depends-Indep")
	}
	for _, field := range fields {
		names, err := relationNames(source[field])
		if err != nil {
			return meta, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid " + field + " in debian/control").
				WithCause(err)
		}
		meta.BuildDepends = append(meta.BuildDepends, names...)
	}
	for _, stanza := range stanzas[1:] {
		if name := strings.TrimSpace(stanza.Values["Package"]); name != "" {
			meta.Binaries = append(meta.Binaries, name)
		}
	}
	meta.Autopkgtest = isAutopkgtest(source["XS-Testsuite"]) || isAutopkgtest(source["Testsuite"])

	format, err := os.ReadFile(filepath.Join(workdir, "debian", "source", "format"))
	if err == nil {
		meta.Native = strings.Contains(string(format), "native")
	}
	return meta, nil
}

// parseControl decodes every stanza of a control file. Comment lines are
// dropped before decoding.
func parseControl(in io.Reader) ([]controlStanza, error) {
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	decoder, err := control.NewDecoder(strings.NewReader(strings.Join(kept, "\n")), nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read debian/control").
			WithCause(err)
	}
	var stanzas []controlStanza
	for {
		stanza := controlStanza{}
		err := decoder.Decode(&stanza)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse debian/control").
				WithCause(err)
		}
		stanzas = append(stanzas, stanza)
	}
	return stanzas, nil
}

// relationNames flattens a relationship field, alternatives included,
// keeping the order of appearance.
func relationNames(value string) ([]string, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
	if value == "" {
		return nil, nil
	}
	parsed, err := dependency.Parse(value)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, relation := range parsed.Relations {
		for _, possibility := range relation.Possibilities {
			names = append(names, possibility.Name)
		}
	}
	return names, nil
}

func isAutopkgtest(value string) bool {
	return strings.TrimSpace(value) == "autopkgtest"
}

func findSnapcraft(root string) (string, error) {
	found := ""
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipCheckoutDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != snapcraftFile {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found = filepath.ToSlash(rel)
		return filepath.SkipAll
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan checkout").
			WithCause(err)
	}
	return found, nil
}

func shouldSkipCheckoutDir(name string) bool {
	switch name {
	case ".git", ".bzr", ".pc":
		return true
	default:
		return false
	}
}

var _ ports.PackagingParserPort = DebianControlAdapter{}
