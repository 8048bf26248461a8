package history

import (
	"sync"

	"github.com/pkg/errors"

	"renderrush/internal/pipeline"
)

// Memory keeps reports in-process. It is the default store when no redis
// endpoint is configured.
type Memory struct {
	mu      sync.Mutex
	reports map[string]pipeline.Report
}

func NewMemory() *Memory {
	return &Memory{reports: make(map[string]pipeline.Report)}
}

func (m *Memory) Save(report *pipeline.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports[report.UID] = *report

	return nil
}

func (m *Memory) Get(uid string) (*pipeline.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[uid]

	if !ok {
		return nil, errors.Errorf("no report for run '%s'", uid)
	}

	return &report, nil
}

func (m *Memory) Delete(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reports, uid)

	return nil
}
