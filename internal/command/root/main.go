package root

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gocloud.dev/gcp"

	"renderrush/internal/history"
	"renderrush/internal/metric"
	"renderrush/internal/pipeline"
	"renderrush/internal/queue"
	"renderrush/internal/storage"
	"renderrush/internal/util"
)

var Cmd = &cobra.Command{
	Use:   "renderrush",
	Short: "RenderRush Video Renderer",
	Long:  `RenderRush: split a video into segments, filter them sequentially or across a worker pool, and measure the speedup`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Usage()
	},
}

func Execute() {
	log.SetLevel(log.DebugLevel)

	if err := Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	Cmd.PersistentFlags().String("work-dir", "temp_processing", "Directory for intermediate segment files")
	Cmd.PersistentFlags().String("output-dir", "output", "Directory for merged output files")
	Cmd.PersistentFlags().Int("worker-cap", 16, "Maximum allowed worker count")

	Cmd.PersistentFlags().String("storage", "", "Local storage bucket path")

	Cmd.PersistentFlags().String("aws-bucket", "", "AWS bucket")
	Cmd.PersistentFlags().String("aws-region", "", "AWS region")
	Cmd.PersistentFlags().String("aws-endpoint", "", "AWS endpoint")
	Cmd.PersistentFlags().String("aws-id", "", "AWS id")
	Cmd.PersistentFlags().String("aws-secret", "", "AWS secret")

	Cmd.PersistentFlags().String("gcs-bucket", "", "GCS bucket")

	Cmd.PersistentFlags().String("amqp", "", "RabbitMQ AMQP URL for report publishing")

	Cmd.PersistentFlags().String("redis", "", "Redis endpoint for run history")
	Cmd.PersistentFlags().String("redis-password", "", "Redis password")
	Cmd.PersistentFlags().Duration("redis-ttl", 30*24*time.Hour, "Run history retention")

	Cmd.PersistentFlags().String("influxdb", "", "InfluxDB endpoint")
	Cmd.PersistentFlags().String("influxdb-token", "", "InfluxDB token")
	Cmd.PersistentFlags().String("influxdb-bucket", "", "InfluxDB bucket")
	Cmd.PersistentFlags().String("influxdb-org", "", "InfluxDB organization")

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(Cmd.PersistentFlags()); err != nil {
		log.WithError(err).Fatal("flag binding failed")
	}
}

// Component bundles the external collaborators a command may need. History,
// queue and metric default to in-process no-ops when unconfigured; the
// bucket stays nil unless a backend is selected.
type Component struct {
	History history.Store
	Channel queue.Channel
	Bucket  storage.Bucket
	Metric  metric.Client
}

func GetComponent(loadHistory, loadQueue, loadStorage, loadMetric bool) *Component {
	component := &Component{
		History: history.NewMemory(),
		Channel: &queue.Null{},
		Metric:  &metric.Null{},
	}

	if loadHistory {
		if redisAddr := viper.GetString("redis"); redisAddr != "" {
			err := retry.Do(func() error {
				store, err := history.NewRedis(&redis.Options{
					Addr:     redisAddr,
					Password: viper.GetString("redis-password"),
				}, viper.GetDuration("redis-ttl"))

				if err != nil {
					return err
				}

				component.History = store

				return nil
			}, retry.Attempts(3))

			if err != nil {
				log.WithError(err).Fatalf("unable to connect to history store '%s'", redisAddr)
			}

			log.Infof("connected to history store '%s'", redisAddr)
		}
	}

	if loadQueue {
		if amqpURL := viper.GetString("amqp"); amqpURL != "" {
			err := retry.Do(func() error {
				channel, err := queue.NewRabbitMQ(amqpURL)

				if err != nil {
					return err
				}

				component.Channel = channel

				return nil
			}, retry.Attempts(3))

			if err != nil {
				log.WithError(err).Fatalf("unable to connect to queue '%s'", amqpURL)
			}

			log.Infof("connected to queue '%s'", amqpURL)
		}
	}

	if loadStorage {
		component.Bucket = openBucket()
	}

	if loadMetric {
		if influxDbAddr := viper.GetString("influxdb"); influxDbAddr != "" {
			metricClient, err := metric.NewInfluxdb(metric.InfluxdbConfig{
				Addr:   influxDbAddr,
				Token:  viper.GetString("influxdb-token"),
				Bucket: viper.GetString("influxdb-bucket"),
				Org:    viper.GetString("influxdb-org"),
			})

			if err != nil {
				log.WithError(err).Fatalf("unable to connect to metrics '%s'", influxDbAddr)
			}

			log.Infof("connected to metrics '%s'", influxDbAddr)
			component.Metric = metricClient
		}
	}

	return component
}

func openBucket() storage.Bucket {
	ctx := context.Background()

	if bucketName := viper.GetString("aws-bucket"); bucketName != "" {
		bucket, err := storage.NewS3(ctx, bucketName, &aws.Config{
			Endpoint:    aws.String(viper.GetString("aws-endpoint")),
			Region:      aws.String(viper.GetString("aws-region")),
			Credentials: credentials.NewStaticCredentials(viper.GetString("aws-id"), viper.GetString("aws-secret"), ""),
		})

		if err != nil {
			log.WithError(err).Fatalf("unable to connect to storage '%s'", bucketName)
		}

		log.Infof("connected to storage '%s'", bucketName)

		return bucket
	}

	if bucketName := viper.GetString("gcs-bucket"); bucketName != "" {
		creds, err := gcp.DefaultCredentials(ctx)

		if err != nil {
			log.WithError(err).Fatal("unable to load GCP credentials")
		}

		client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))

		if err != nil {
			log.WithError(err).Fatal("unable to create GCP client")
		}

		bucket, err := storage.NewGCS(ctx, bucketName, client)

		if err != nil {
			log.WithError(err).Fatalf("unable to connect to storage '%s'", bucketName)
		}

		log.Infof("connected to storage '%s'", bucketName)

		return bucket
	}

	if bucketPath := viper.GetString("storage"); bucketPath != "" {
		if err := os.MkdirAll(bucketPath, os.ModePerm); err != nil {
			log.WithError(err).Fatalf("unable to create storage '%s'", bucketPath)
		}

		bucket, err := storage.NewLocal(ctx, bucketPath)

		if err != nil {
			log.WithError(err).Fatalf("unable to open storage '%s'", bucketPath)
		}

		log.Infof("connected to storage '%s'", bucketPath)

		return bucket
	}

	return nil
}

// PublishReport fans a run report out to every configured collaborator:
// the history store, the report queue, the metric backend and, when a
// bucket is configured, the merged output itself.
func (c *Component) PublishReport(report *pipeline.Report) {
	if err := c.History.Save(report); err != nil {
		log.WithError(err).Warn("unable to save run report")
	}

	msg := queue.ReportMessage{
		UID:               report.UID,
		Source:            report.Source,
		Filter:            string(report.Filter),
		Mode:              string(report.Mode),
		Workers:           report.Workers,
		Segments:          report.SegmentCount,
		Successes:         report.SuccessCount,
		Failures:          report.FailureCount,
		ElapsedSeconds:    report.Elapsed.Seconds(),
		SequentialSeconds: report.SequentialDuration.Seconds(),
		ParallelSeconds:   report.ParallelDuration.Seconds(),
		Speedup:           report.Speedup,
		Output:            report.OutputPath,
		FailedPhase:       string(report.FailedPhase),
		CreatedAt:         report.CreatedAt,
	}

	_ = c.Channel.CreateQueue("report.completed")

	if err := c.Channel.Publish("report.completed", msg); err != nil {
		log.WithError(err).Warn("unable to publish run report")
	}

	hostname, _ := os.Hostname()
	tags := metric.Tags{
		"hostname": hostname,
		"mode":     string(report.Mode),
		"filter":   string(report.Filter),
	}

	durationMetric := &metric.DurationMetric{
		RowMetric: metric.RowMetric{Name: "renderrush_run_duration", Tags: tags},
		Duration:  report.Elapsed,
	}

	successMetric := &metric.CounterMetric{
		RowMetric: metric.RowMetric{Name: "renderrush_segments_success", Tags: tags},
		Counter:   int64(report.SuccessCount),
	}

	failureMetric := &metric.CounterMetric{
		RowMetric: metric.RowMetric{Name: "renderrush_segments_failed", Tags: tags},
		Counter:   int64(report.FailureCount),
	}

	c.Metric.Send(durationMetric.Metric(), successMetric.Metric(), failureMetric.Metric())

	if c.Bucket != nil && report.OutputPath != "" {
		key := report.UID + "/" + filepath.Base(report.OutputPath)

		if err := util.Upload(c.Bucket, key, report.OutputPath, storage.PrivateACL); err != nil {
			log.WithError(err).Warnf("unable to publish output to '%s'", key)
		} else {
			log.Infof("published output to '%s'", key)
		}
	}
}

// FetchOutput downloads the published output of a past run into destDir and
// returns the local path.
func (c *Component) FetchOutput(uid string, destDir string) (string, error) {
	report, err := c.History.Get(uid)

	if err != nil {
		return "", err
	}

	if report.OutputPath == "" {
		return "", errors.Errorf("run '%s' produced no output", uid)
	}

	if c.Bucket == nil {
		return "", errors.New("no storage bucket configured")
	}

	if err := os.MkdirAll(destDir, os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "unable to create '%s'", destDir)
	}

	name := filepath.Base(report.OutputPath)
	dest := filepath.Join(destDir, name)

	if err := util.Download(c.Bucket, uid+"/"+name, dest); err != nil {
		return "", err
	}

	return dest, nil
}

// PruneRun removes the stored report of a run and every artifact published
// under its UID.
func (c *Component) PruneRun(uid string) error {
	if c.Bucket != nil {
		if err := c.Bucket.Delete(uid + "/"); err != nil {
			return err
		}
	}

	return c.History.Delete(uid)
}
