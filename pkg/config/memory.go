package config

import (
	"path/filepath"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// DestinationMemory persists interactively chosen clone destinations as
// repository overrides in a state file. The file is loaded as a store layer
// on later runs, below the user's own configuration.
type DestinationMemory struct {
	fs   afero.Fs
	path string
}

// NewDestinationMemory returns a memory backed by path on fs
func NewDestinationMemory(fs afero.Fs, path string) *DestinationMemory {
	return &DestinationMemory{fs: fs, path: path}
}

type destinationsFile struct {
	Repositories struct {
		Overrides map[string]string `toml:"overrides"`
	} `toml:"repositories"`
}

// Remember records repo -> relPath
func (m *DestinationMemory) Remember(repo, relPath string) error {
	doc, err := m.read()
	if err != nil {
		return err
	}
	if doc.Repositories.Overrides == nil {
		doc.Repositories.Overrides = make(map[string]string)
	}
	doc.Repositories.Overrides[repo] = relPath

	data, err := toml.Marshal(doc)
	if err != nil {
		return macerrors.Wrap(err, macerrors.ErrInternal, "failed to encode remembered destinations")
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return macerrors.Wrapf(err, macerrors.ErrConfigLoad, "failed to create %s", filepath.Dir(m.path))
	}

	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0644); err != nil {
		return macerrors.Wrapf(err, macerrors.ErrConfigLoad, "failed to write %s", tmp)
	}
	if err := m.fs.Rename(tmp, m.path); err != nil {
		return macerrors.Wrapf(err, macerrors.ErrConfigLoad, "failed to replace %s", m.path)
	}
	return nil
}

// Recall returns every remembered destination
func (m *DestinationMemory) Recall() (map[string]string, error) {
	doc, err := m.read()
	if err != nil {
		return nil, err
	}
	if doc.Repositories.Overrides == nil {
		return map[string]string{}, nil
	}
	return doc.Repositories.Overrides, nil
}

func (m *DestinationMemory) read() (*destinationsFile, error) {
	doc := &destinationsFile{}
	exists, err := afero.Exists(m.fs, m.path)
	if err != nil || !exists {
		return doc, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return nil, macerrors.Wrapf(err, macerrors.ErrConfigLoad, "failed to read %s", m.path)
	}
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil, macerrors.Wrapf(err, macerrors.ErrConfigParse, "failed to parse %s", m.path)
	}
	return doc, nil
}
