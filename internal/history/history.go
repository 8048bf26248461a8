// Package history stores run reports so an external advisor can suggest
// future parameters from past speedups. The pipeline only writes here.
package history

import "renderrush/internal/pipeline"

type Store interface {
	Save(report *pipeline.Report) (err error)
	Get(uid string) (report *pipeline.Report, err error)
	Delete(uid string) (err error)
}
