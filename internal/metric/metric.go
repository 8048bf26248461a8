package metric

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// Client ships run and task metrics to a time-series backend.
type Client interface {
	Add(metric Metric)
	Send(metrics ...*influxdb2.Point)
	Ticker(ctx context.Context, duration time.Duration)
}

// Metric is anything that can render itself as an influx point.
type Metric interface {
	Metric() *influxdb2.Point
}

type Fields map[string]interface{}

type Tags map[string]string

type RowMetric struct {
	Name string
	Tags Tags
}

type CounterMetric struct {
	RowMetric
	Counter int64
}

func (c *CounterMetric) Metric() *influxdb2.Point {
	return influxdb2.NewPoint(c.Name, c.Tags, Fields{"counter": c.Counter}, time.Now())
}

type GaugeMetric struct {
	RowMetric
	Gauge float64
}

func (g *GaugeMetric) Metric() *influxdb2.Point {
	return influxdb2.NewPoint(g.Name, g.Tags, Fields{"gauge": g.Gauge}, time.Now())
}

type DurationMetric struct {
	RowMetric
	Duration time.Duration
}

func (d *DurationMetric) Metric() *influxdb2.Point {
	return influxdb2.NewPoint(d.Name, d.Tags, Fields{"duration_ms": d.Duration.Milliseconds()}, time.Now())
}
