package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/engine"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/manifest"
	"github.com/cperrin88/modelvault/pkg/model"
	"github.com/cperrin88/modelvault/pkg/settings"
	"github.com/cperrin88/modelvault/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, installed ...string) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	content := testutil.Blob(64)
	var catalog []model.Descriptor
	var digests []manifest.Digest
	for _, id := range []string{"beta", "alpha", "gamma"} {
		catalog = append(catalog, model.Descriptor{
			ID: id, Name: id, Filename: id + ".bin", URL: "http://127.0.0.1:1/" + id, Engine: model.EngineWhisper,
		})
		digests = append(digests, manifest.Digest{ModelID: id, SHA256: testutil.SHA256(content), SizeBytes: uint64(len(content))})
	}
	for _, id := range installed {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".bin"), content, 0o644))
	}
	m, err := manifest.New(digests...)
	require.NoError(t, err)
	e, err := engine.New(engine.Options{ModelsDir: dir, Catalog: catalog, Manifest: m})
	require.NoError(t, err)
	return e
}

func TestAutoSelect(t *testing.T) {
	tests := []struct {
		name      string
		installed []string
		selected  string
		want      string
	}{
		{name: "nothing installed", want: ""},
		{name: "first installed by id", installed: []string{"gamma", "beta"}, want: "beta"},
		{name: "keeps valid selection", installed: []string{"alpha", "gamma"}, selected: "gamma", want: "gamma"},
		{name: "replaces stale selection", installed: []string{"gamma"}, selected: "alpha", want: "gamma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, tt.installed...)
			store := &settings.MemoryStore{}
			if tt.selected != "" {
				require.NoError(t, store.SetSelectedModel(tt.selected))
			}

			got, err := autoSelect(eng, store)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			persisted, err := store.SelectedModel()
			require.NoError(t, err)
			if tt.want != "" {
				assert.Equal(t, tt.want, persisted)
			}
		})
	}
}

func TestSelectModel(t *testing.T) {
	eng := newTestEngine(t, "alpha")
	store := &settings.MemoryStore{}

	assert.ErrorIs(t, selectModel(eng, store, "beta"), errors.ErrState)
	assert.ErrorIs(t, selectModel(eng, store, "missing"), errors.ErrNotFound)
	require.NoError(t, selectModel(eng, store, "alpha"))

	got, err := store.SelectedModel()
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
}

func TestClearSelection(t *testing.T) {
	store := &settings.MemoryStore{}
	require.NoError(t, store.SetSelectedModel("alpha"))

	require.NoError(t, clearSelection(store, "beta"))
	got, _ := store.SelectedModel()
	assert.Equal(t, "alpha", got)

	require.NoError(t, clearSelection(store, "alpha"))
	got, _ = store.SelectedModel()
	assert.Empty(t, got)
}

func TestProgressPrinter_LogsSteps(t *testing.T) {
	logs := &bytes.Buffer{}
	logger.SetTestOutput(logs)
	defer logger.UnsetTestOutput()
	logger.InitLogger("info", logger.FormatText)

	out := &bytes.Buffer{}
	p := newProgressPrinter(out, false)
	for _, pct := range []float64{0, 3, 9, 10, 15, 22, 100} {
		p.Emit(events.Event{Kind: events.KindDownloadProgress, ModelID: "small", Percentage: pct, Total: 100, Downloaded: uint64(pct)})
	}
	p.Emit(events.Event{Kind: events.KindDownloadComplete, ModelID: "small"})
	p.finish()

	assert.Equal(t, 4, strings.Count(logs.String(), "Download progress"), "0, 10, 22 and 100 percent are logged")
	assert.Contains(t, out.String(), "small")
	assert.Contains(t, out.String(), "ready")
}

func TestProgressPrinter_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	p := newProgressPrinter(out, true)
	p.Emit(events.Event{Kind: events.KindExtractionFailed, ModelID: "parakeet", Error: "unsupported link"})

	var ev events.Event
	require.NoError(t, json.Unmarshal(out.Bytes(), &ev))
	assert.Equal(t, events.KindExtractionFailed, ev.Kind)
	assert.Equal(t, "unsupported link", ev.Error)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestStatusLabel(t *testing.T) {
	assert.Contains(t, statusLabel(model.Info{Status: model.Status{Downloaded: true}}), "installed")
	assert.Contains(t, statusLabel(model.Info{Status: model.Status{Downloading: true, Downloaded: true}}), "downloading")
	assert.Contains(t, statusLabel(model.Info{Status: model.Status{PartialSize: 2048}}), "partial 2.0 KiB")
	assert.Equal(t, "available", statusLabel(model.Info{}))
}

func useConfig(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	prevPath, prevOut := ConfigPath, stdout
	out := &bytes.Buffer{}
	ConfigPath = &path
	SetOutput(out)
	t.Cleanup(func() {
		ConfigPath = prevPath
		SetOutput(prevOut)
	})
	logger.SetTestOutput(&bytes.Buffer{})
	t.Cleanup(logger.UnsetTestOutput)
	return path, out
}

func TestConfigSettings(t *testing.T) {
	path, out := useConfig(t)

	require.NoError(t, writeDefaultConfig(path, false))
	assert.Error(t, writeDefaultConfig(path, false), "existing file needs --force")
	require.NoError(t, writeDefaultConfig(path, true))

	require.NoError(t, updateSetting("max_concurrent", "4"))
	assert.Error(t, updateSetting("max_concurrent", "0"))
	assert.Error(t, updateSetting("no_such_key", "1"))

	out.Reset()
	require.NoError(t, showSettings([]string{"max_concurrent"}, false))
	assert.Equal(t, "4\n", out.String())

	out.Reset()
	require.NoError(t, showSettings([]string{"max_concurrent", "log_level"}, false))
	assert.Contains(t, out.String(), "max_concurrent")
	assert.Contains(t, out.String(), "log_level")

	require.NoError(t, updateSetting("output_format", OutputJSON))
	out.Reset()
	require.NoError(t, showSettings([]string{"max_concurrent"}, false))
	var values map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &values))
	assert.Equal(t, map[string]string{"max_concurrent": "4"}, values)
}
