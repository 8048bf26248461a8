package metric

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	lp "github.com/influxdata/line-protocol"
	log "github.com/sirupsen/logrus"
)

type influx struct {
	client influxdb2.InfluxDBClient
	bucket string
	org    string

	mu      sync.Mutex
	metrics []Metric
}

type InfluxdbConfig struct {
	Addr   string
	Token  string
	Bucket string
	Org    string
}

func NewInfluxdb(config InfluxdbConfig) (*influx, error) {
	client := influxdb2.NewClient(config.Addr, config.Token)

	return &influx{client: client, bucket: config.Bucket, org: config.Org}, nil
}

func (i *influx) Add(metric Metric) {
	i.mu.Lock()
	i.metrics = append(i.metrics, metric)
	i.mu.Unlock()
}

// snapshot renders every registered metric at its current value.
func (i *influx) snapshot() []*influxdb2.Point {
	i.mu.Lock()
	defer i.mu.Unlock()

	points := make([]*influxdb2.Point, len(i.metrics))

	for idx, m := range i.metrics {
		points[idx] = m.Metric()
	}

	return points
}

func (i *influx) Send(metrics ...*influxdb2.Point) {
	if err := i.client.WriteApiBlocking(i.org, i.bucket).WritePoint(context.Background(), metrics...); err != nil {
		log.WithError(err).Debug("unable to send metrics")
		for _, metric := range metrics {
			log.WithFields(log.Fields{
				"name":   metric.Name(),
				"tags":   tagsMap(metric.TagList()),
				"fields": fieldsMap(metric.FieldList()),
			}).Debug("metric not sent")
		}
	}
}

func (i *influx) Ticker(ctx context.Context, duration time.Duration) {
	ticker := time.NewTicker(duration)

	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C:
			if points := i.snapshot(); len(points) > 0 {
				i.Send(points...)
			}
		}
	}
}

func tagsMap(tags []*lp.Tag) (t Tags) {
	t = make(Tags)
	for _, tag := range tags {
		t[tag.Key] = tag.Value
	}
	return t
}

func fieldsMap(fields []*lp.Field) (f Fields) {
	f = make(Fields)
	for _, field := range fields {
		f[field.Key] = field.Value
	}
	return f
}
