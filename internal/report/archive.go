package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
)

// ChartEntryName is the archive entry name for a Target's chart.
func ChartEntryName(target string) string {
	return "Chart_" + safeName(target) + ".png"
}

// WriteChartArchive bundles chart images into a ZIP archive written to w.
// Entries with the same sanitized name get a numeric suffix.
func WriteChartArchive(w io.Writer, images []ChartImage, modified time.Time) error {
	zw := zip.NewWriter(w)
	used := make(map[string]int)

	for _, img := range images {
		name := ChartEntryName(img.Target)
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("Chart_%s_%d.png", safeName(img.Target), n+1)
		} else {
			used[name] = 1
		}

		// PNG data is already deflated
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := fw.Write(img.PNG); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish chart archive: %w", err)
	}
	return nil
}

// SaveChartArchive writes the archive to path.
func SaveChartArchive(path string, images []ChartImage, modified time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	if err := WriteChartArchive(f, images, modified); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
