package queue

import "time"

// ReportMessage is the wire form of a run report published on the
// report.completed queue.
type ReportMessage struct {
	UID               string    `yaml:"uid"`
	Source            string    `yaml:"source"`
	Filter            string    `yaml:"filter"`
	Mode              string    `yaml:"mode"`
	Workers           int       `yaml:"workers"`
	Segments          int       `yaml:"segments"`
	Successes         int       `yaml:"successes"`
	Failures          int       `yaml:"failures"`
	ElapsedSeconds    float64   `yaml:"elapsedSeconds"`
	SequentialSeconds float64   `yaml:"sequentialSeconds,omitempty"`
	ParallelSeconds   float64   `yaml:"parallelSeconds,omitempty"`
	Speedup           float64   `yaml:"speedup,omitempty"`
	Output            string    `yaml:"output,omitempty"`
	FailedPhase       string    `yaml:"failedPhase,omitempty"`
	CreatedAt         time.Time `yaml:"createdAt"`
}
