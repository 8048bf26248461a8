package pipeline

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Cleanup removes intermediate files best-effort: a missing file is not an
// error and a failed removal only logs a warning. It never reports failure
// to the caller.
func Cleanup(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}

		err := os.Remove(path)

		if err == nil || os.IsNotExist(err) {
			continue
		}

		log.WithError(err).Warnf("unable to remove intermediate file '%s'", path)
	}
}
