package manifest

import (
	"os"
	"path/filepath"
)

func readManifestFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
