package storage

import (
	"context"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
)

type gcs struct {
	ctx    context.Context
	bucket *blob.Bucket
}

func NewGCS(ctx context.Context, bucketName string, client *gcp.HTTPClient) (Bucket, error) {
	bucket, err := gcsblob.OpenBucket(ctx, client, bucketName, nil)

	if err != nil {
		return nil, err
	}

	return &gcs{ctx: ctx, bucket: bucket}, nil
}

func (g *gcs) Get(key string) (data []byte, err error) {
	return g.bucket.ReadAll(g.ctx, key)
}

func (g *gcs) Store(key string, data []byte, acl ACL) error {
	var opts *blob.WriterOptions

	if acl == PublicACL {
		opts = &blob.WriterOptions{
			BeforeWrite: func(as func(interface{}) bool) error {
				var objp **gcstorage.ObjectHandle

				if !as(&objp) {
					return errors.New("invalid GCS writer type")
				}

				return (*objp).ACL().Set(g.ctx, gcstorage.AllUsers, gcstorage.RoleReader)
			},
		}
	}

	return g.bucket.WriteAll(g.ctx, key, data, opts)
}

func (g *gcs) Delete(key string) error {
	iter := g.bucket.List(&blob.ListOptions{
		Prefix: key,
	})

	for {
		obj, err := iter.Next(g.ctx)

		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		if obj.IsDir {
			continue
		}

		if err = g.bucket.Delete(g.ctx, obj.Key); err != nil {
			return err
		}
	}

	return nil
}
