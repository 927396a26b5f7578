package reporter

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveTimeline writes a rendered timeline report to filename.
func SaveTimeline(content, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
