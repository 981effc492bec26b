// Package archive lays out and writes the on-disk archive of daily images.
package archive

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aluiziolira/dailyfetch/models"
)

const jsonDirSuffix = "-json"

// Paths are the destination files for one source and date.
type Paths struct {
	Image string
	JSON  string
}

// Resolve derives the image path and the JSON sidecar path.
// The sidecar path is always returned; only json sources use it.
func Resolve(root, name string, date time.Time) Paths {
	year := fmt.Sprintf("%04d", date.Year())
	stamp := models.DateStamp(date)
	return Paths{
		Image: filepath.Join(root, name, year, stamp+".jpg"),
		JSON:  filepath.Join(root, name+jsonDirSuffix, year, stamp+".json"),
	}
}
