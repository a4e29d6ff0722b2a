// Package loader resolves where a running VM should look for class files:
// the project config file that pins a classpath (FindConfigFile), and the
// name of a per-installation classpath repository directory (RepoDir).
// Nothing in the repository adds RepoDir to a ClassFinder's roots; only
// the roots a caller passes are searched.
package loader

import (
	"os"
	"path/filepath"
)

const (
	ConfigFileName       = "vm.toml"
	ClasspathRepoDirEnv  = "GOJVM_CLASSPATH"
	ClasspathRepoDirName = ".gojvm/classpath"
)

// RepoDir returns the default classpath repository directory: the
// environment variable if set, otherwise a directory under the user's
// home.
func RepoDir() string {
	if envPath := os.Getenv(ClasspathRepoDirEnv); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ClasspathRepoDirName)
	}
	return filepath.Join(home, ClasspathRepoDirName)
}

// FindConfigFile walks upward from startPath looking for vm.toml.
// Returns "" if none is found before the filesystem root.
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ProjectRoot returns the directory containing vm.toml reachable upward
// from startPath, or "" if none exists.
func ProjectRoot(startPath string) string {
	cfg := FindConfigFile(startPath)
	if cfg == "" {
		return ""
	}
	return filepath.Dir(cfg)
}
