package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/odoo"
)

// ReadJSON decodes a snapshot from r.
//
// ReadJSON returns an INVALID_FORMAT error if the JSON is malformed, the
// version is not [FormatVersion], or a module has no name. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot")
	}
	if snap.Version != FormatVersion {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot version %d", snap.Version)
	}
	for i, m := range snap.Modules {
		if m.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "module %d has no name", i)
		}
	}
	return &snap, nil
}

// ImportJSON reads the snapshot file at path.
func ImportJSON(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	snap, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Store rebuilds the module store the snapshot was taken from.
func (s *Snapshot) Store() (*odoo.Store, error) {
	return odoo.NewStoreFromModules(s.Modules)
}

// Graph rebuilds the module graph of the snapshot with opts.
func (s *Snapshot) Graph(opts odoo.Options) (*odoo.Modules, error) {
	store, err := s.Store()
	if err != nil {
		return nil, err
	}
	m, err := odoo.NewModules(store, opts)
	if err != nil {
		return nil, err
	}
	m.Graph().Meta()[odoo.MetaGraphName] = s.Database
	return m, nil
}
