package util

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"

	"renderrush/internal/storage"
)

func Download(bucket storage.Bucket, key string, path string) error {
	log.Debugf("download '%s' to '%s'", key, path)

	data, err := bucket.Get(key)

	if err != nil {
		return err
	}

	return ioutil.WriteFile(path, data, os.ModePerm)
}

func Upload(bucket storage.Bucket, key string, path string, acl storage.ACL) error {
	log.Debugf("upload '%s' to '%s'", path, key)

	data, err := ioutil.ReadFile(path)

	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			return bucket.Store(key, data, acl)
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
	)
}
