package config

import (
	stderrors "errors"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// ValidateFile checks that path exists and is well-formed TOML. Syntax errors
// carry the line and column in their details.
func ValidateFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return macerrors.Wrapf(err, macerrors.ErrConfigLoad, "cannot read configuration file %s", path)
	}

	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if stderrors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return macerrors.Newf(macerrors.ErrConfigParse, "%s:%d:%d: %s", path, row, col, decodeErr.Error()).
				WithDetail("line", row).
				WithDetail("column", col).
				WithDetail("context", decodeErr.String())
		}
		return macerrors.Wrapf(err, macerrors.ErrConfigParse, "invalid configuration file %s", path)
	}

	return nil
}
