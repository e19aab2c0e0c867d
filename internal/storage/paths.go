package storage

import (
	"os"
	"path/filepath"
)

const appDirName = "stratus"

// DataDir returns the per-user directory for the preference store,
// creating it if needed. Falls back to a dot-directory in $HOME when the
// platform config dir is unavailable.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, "."+appDirName)
	} else {
		base = filepath.Join(base, appDirName)
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}
