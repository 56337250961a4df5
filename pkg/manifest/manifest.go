// Package manifest loads and validates the trusted list of model digests.
//
// A manifest is a YAML or JSON document:
//
//	version: "1.0"
//	models:
//	  - id: small
//	    sha256: 1be3a9b2...
//	    size_bytes: 487601967
//
// Every entry must carry a nonzero size and a 64 character hex SHA-256 digest that is not a
// well-known placeholder. A manifest with any invalid entry is rejected as a whole.
package manifest

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the constraint a manifest's schema version must satisfy.
const SupportedVersions = ">= 1.0, < 2.0"

// DefaultVersion is assumed when a manifest carries no version field.
const DefaultVersion = "1.0"

const digestLength = 64

var placeholderDigests = map[string]bool{
	strings.Repeat("deadbeef", 8): true,
	strings.Repeat("cafebabe", 8): true,
}

// Digest is the trusted integrity record of one model.
type Digest struct {
	ModelID   string
	SHA256    string // lowercase hex
	SizeBytes uint64
}

// Manifest is an immutable set of validated digests keyed by model id.
type Manifest struct {
	version *version.Version
	digests map[string]Digest
}

type document struct {
	Version string  `yaml:"version"`
	Models  []entry `yaml:"models"`
}

type entry struct {
	ID        string `yaml:"id"`
	SHA256    string `yaml:"sha256"`
	SizeBytes uint64 `yaml:"size_bytes"`
}

// LoadFile reads and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrManifest, "failed to read model manifest at %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses and validates a manifest document. JSON documents are accepted as YAML.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrManifest, err.Error())
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newError("", RuleMalformed, err)
	}

	v, err := checkVersion(doc.Version)
	if err != nil {
		return nil, err
	}
	if len(doc.Models) == 0 {
		return nil, newError("", RuleMissingEntries, nil)
	}

	digests := make(map[string]Digest, len(doc.Models))
	for _, e := range doc.Models {
		if e.ID == "" {
			return nil, newError("", RuleEmptyID, nil)
		}
		if _, dup := digests[e.ID]; dup {
			return nil, newError(e.ID, RuleDuplicateID, nil)
		}
		d, err := ValidateEntry(e.ID, e.SHA256, e.SizeBytes)
		if err != nil {
			return nil, err
		}
		digests[e.ID] = d
	}

	return &Manifest{version: v, digests: digests}, nil
}

// New builds a manifest from already validated digests. It is meant for tests and embedders that
// obtain digests from a trusted source other than a document.
func New(digests ...Digest) (*Manifest, error) {
	m := &Manifest{version: version.Must(version.NewVersion(DefaultVersion)), digests: make(map[string]Digest, len(digests))}
	for _, d := range digests {
		if _, dup := m.digests[d.ModelID]; dup {
			return nil, newError(d.ModelID, RuleDuplicateID, nil)
		}
		valid, err := ValidateEntry(d.ModelID, d.SHA256, d.SizeBytes)
		if err != nil {
			return nil, err
		}
		m.digests[d.ModelID] = valid
	}
	return m, nil
}

// ValidateEntry checks one manifest entry and returns its normalized digest.
func ValidateEntry(id, sha string, size uint64) (Digest, error) {
	if size == 0 {
		return Digest{}, newError(id, RuleZeroSize, nil)
	}
	if len(sha) != digestLength || !isHex(sha) {
		return Digest{}, newError(id, RuleInvalidDigest, nil)
	}
	sha = strings.ToLower(sha)
	if IsPlaceholderDigest(sha) {
		return Digest{}, newError(id, RulePlaceholder, nil)
	}
	return Digest{ModelID: id, SHA256: sha, SizeBytes: size}, nil
}

// IsPlaceholderDigest reports whether sha is a value commonly used as a stand-in during development:
// a single repeated character, or a repeated deadbeef / cafebabe word.
func IsPlaceholderDigest(sha string) bool {
	sha = strings.ToLower(sha)
	if sha == "" {
		return false
	}
	if strings.Count(sha, sha[:1]) == len(sha) {
		return true
	}
	return placeholderDigests[sha]
}

// Lookup returns the digest for id.
func (m *Manifest) Lookup(id string) (Digest, bool) {
	d, ok := m.digests[id]
	return d, ok
}

// IDs returns the model ids in the manifest, sorted.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, len(m.digests))
	for id := range m.digests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.digests)
}

// Version returns the schema version of the manifest.
func (m *Manifest) Version() string {
	return m.version.String()
}

func checkVersion(raw string) (*version.Version, error) {
	if raw == "" {
		raw = DefaultVersion
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, newError("", RuleVersion, err)
	}
	constraints := version.MustConstraints(version.NewConstraint(SupportedVersions))
	if !constraints.Check(v) {
		return nil, newError("", RuleVersion, fmt.Errorf("%s does not satisfy %s", v, SupportedVersions))
	}
	return v, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
