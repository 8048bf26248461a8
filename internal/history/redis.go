package history

import (
	"time"

	"github.com/go-redis/redis/v7"
	"gopkg.in/yaml.v2"

	"renderrush/internal/pipeline"
)

const keyPrefix = "renderrush:run:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(options *redis.Options, ttl time.Duration) (Store, error) {
	client := redis.NewClient(options)

	if _, err := client.Ping().Result(); err != nil {
		return nil, err
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func (r *redisStore) Save(report *pipeline.Report) error {
	data, err := yaml.Marshal(report)

	if err != nil {
		return err
	}

	return r.client.Set(keyPrefix+report.UID, string(data), r.ttl).Err()
}

func (r *redisStore) Get(uid string) (*pipeline.Report, error) {
	data, err := r.client.Get(keyPrefix + uid).Result()

	if err != nil {
		return nil, err
	}

	var report pipeline.Report

	if err := yaml.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *redisStore) Delete(uid string) error {
	return r.client.Del(keyPrefix + uid).Err()
}
