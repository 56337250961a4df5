package manifest

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDigest = "1be3a9b2b8d1c0e4f5a6978877665544332211ffeeddccbbaa99887766554433"

func TestLoad_JSON(t *testing.T) {
	doc := `{"models":[{"id":"small","sha256":"` + strings.ToUpper(validDigest) + `","size_bytes":487601967}]}`

	m, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	d, ok := m.Lookup("small")
	require.True(t, ok)
	assert.Equal(t, validDigest, d.SHA256)
	assert.Equal(t, uint64(487601967), d.SizeBytes)
	assert.Equal(t, "small", d.ModelID)
	assert.Equal(t, "1.0.0", m.Version())
}

func TestLoad_YAML(t *testing.T) {
	doc := `version: "1.2"
models:
  - id: small
    sha256: ` + validDigest + `
    size_bytes: 10
  - id: parakeet
    sha256: "` + strings.Replace(validDigest, "1", "2", 1) + `"
    size_bytes: 20
`
	m, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"parakeet", "small"}, m.IDs())
	assert.Equal(t, 2, m.Len())

	_, ok := m.Lookup("missing")
	assert.False(t, ok)
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		rule Rule
	}{
		{
			name: "zero size",
			doc:  `{"models":[{"id":"small","sha256":"` + validDigest + `","size_bytes":0}]}`,
			rule: RuleZeroSize,
		},
		{
			name: "short digest",
			doc:  `{"models":[{"id":"small","sha256":"abc123","size_bytes":5}]}`,
			rule: RuleInvalidDigest,
		},
		{
			name: "non-hex digest",
			doc:  `{"models":[{"id":"small","sha256":"` + strings.Repeat("g", 64) + `","size_bytes":5}]}`,
			rule: RuleInvalidDigest,
		},
		{
			name: "all zeros",
			doc:  `{"models":[{"id":"small","sha256":"` + strings.Repeat("0", 64) + `","size_bytes":1024}]}`,
			rule: RulePlaceholder,
		},
		{
			name: "repeated f",
			doc:  `{"models":[{"id":"small","sha256":"` + strings.Repeat("F", 64) + `","size_bytes":1024}]}`,
			rule: RulePlaceholder,
		},
		{
			name: "deadbeef",
			doc:  `{"models":[{"id":"small","sha256":"` + strings.Repeat("deadbeef", 8) + `","size_bytes":1024}]}`,
			rule: RulePlaceholder,
		},
		{
			name: "cafebabe uppercase",
			doc:  `{"models":[{"id":"small","sha256":"` + strings.Repeat("CAFEBABE", 8) + `","size_bytes":1024}]}`,
			rule: RulePlaceholder,
		},
		{
			name: "duplicate id",
			doc: `{"models":[{"id":"small","sha256":"` + validDigest + `","size_bytes":1},` +
				`{"id":"small","sha256":"` + validDigest + `","size_bytes":1}]}`,
			rule: RuleDuplicateID,
		},
		{
			name: "empty id",
			doc:  `{"models":[{"id":"","sha256":"` + validDigest + `","size_bytes":1}]}`,
			rule: RuleEmptyID,
		},
		{
			name: "no models",
			doc:  `{"models":[]}`,
			rule: RuleMissingEntries,
		},
		{
			name: "future version",
			doc:  `{"version":"2.0","models":[{"id":"small","sha256":"` + validDigest + `","size_bytes":1}]}`,
			rule: RuleVersion,
		},
		{
			name: "garbage version",
			doc:  `{"version":"latest","models":[{"id":"small","sha256":"` + validDigest + `","size_bytes":1}]}`,
			rule: RuleVersion,
		},
		{
			name: "malformed",
			doc:  `{"models": [`,
			rule: RuleMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, errors.ErrManifest)

			var merr *Error
			require.True(t, stderrors.As(err, &merr))
			assert.Equal(t, tt.rule, merr.Rule)
		})
	}
}

func TestLoad_OneBadEntryRejectsWholeManifest(t *testing.T) {
	doc := `{"models":[` +
		`{"id":"small","sha256":"` + validDigest + `","size_bytes":1},` +
		`{"id":"dev","sha256":"` + strings.Repeat("0", 64) + `","size_bytes":1024}]}`

	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev")
	assert.Contains(t, err.Error(), "placeholder")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	doc := `{"models":[{"id":"small","sha256":"` + validDigest + `","size_bytes":1}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, errors.ErrManifest)
}

func TestIsPlaceholderDigest(t *testing.T) {
	for _, c := range "0123456789abcdef" {
		assert.True(t, IsPlaceholderDigest(strings.Repeat(string(c), 64)), "repeated %c", c)
	}
	assert.True(t, IsPlaceholderDigest(strings.Repeat("DeadBeef", 8)))
	assert.False(t, IsPlaceholderDigest(validDigest))
	assert.False(t, IsPlaceholderDigest(""))
}

func TestNew(t *testing.T) {
	m, err := New(Digest{ModelID: "a", SHA256: strings.ToUpper(validDigest), SizeBytes: 3})
	require.NoError(t, err)
	d, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, validDigest, d.SHA256)

	_, err = New(Digest{ModelID: "a", SHA256: strings.Repeat("1", 64), SizeBytes: 3})
	assert.ErrorIs(t, err, errors.ErrManifest)
}
