package media

import (
	"os"
	"os/exec"
	"path/filepath"
)

// FindExecutable searches PATH and then common install locations for name.
// Installs from pip or Homebrew are often missing from PATH in cron and
// launchd environments.
func FindExecutable(name string) (string, bool) {
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}

	homeDir, _ := os.UserHomeDir()
	searchPaths := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/usr/bin",
		"/snap/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "miniconda3", "bin"),
		filepath.Join(homeDir, "anaconda3", "bin"),
	}
	for _, dir := range searchPaths {
		fullPath := filepath.Join(dir, name)
		if st, err := os.Stat(fullPath); err == nil && !st.IsDir() {
			return fullPath, true
		}
	}

	return name, false
}
