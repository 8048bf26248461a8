package storage

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

func TestLocalBucketRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "bucket")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	bucket, err := NewLocal(context.Background(), dir)

	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if err := bucket.Store("run1/output.mp4", []byte("merged output"), PrivateACL); err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := bucket.Get("run1/output.mp4")

	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if string(data) != "merged output" {
		t.Errorf("Get returned %q", data)
	}
}

func TestLocalBucketDeleteRemovesPrefix(t *testing.T) {
	dir, err := ioutil.TempDir("", "bucket")

	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	defer os.RemoveAll(dir)

	bucket, err := NewLocal(context.Background(), dir)

	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	objects := []string{"run1/output.mp4", "run1/report.yaml", "run2/output.mp4"}

	for _, key := range objects {
		if err := bucket.Store(key, []byte("data"), PrivateACL); err != nil {
			t.Fatalf("Store %q: %v", key, err)
		}
	}

	if err := bucket.Delete("run1/"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, key := range []string{"run1/output.mp4", "run1/report.yaml"} {
		if _, err := bucket.Get(key); err == nil {
			t.Errorf("object %q survived delete", key)
		}
	}

	// Objects of other runs stay untouched.
	if _, err := bucket.Get("run2/output.mp4"); err != nil {
		t.Errorf("unrelated object removed: %v", err)
	}
}

func TestS3WriteOptionsSetCannedACL(t *testing.T) {
	opts := s3WriteOptions(PublicACL)

	if opts == nil {
		t.Fatal("public objects need writer options")
	}

	input := &s3manager.UploadInput{}

	err := opts.BeforeWrite(func(i interface{}) bool {
		p, ok := i.(**s3manager.UploadInput)

		if !ok {
			return false
		}

		*p = input

		return true
	})

	if err != nil {
		t.Fatalf("BeforeWrite: %v", err)
	}

	if aws.StringValue(input.ACL) != "public-read" {
		t.Errorf("canned ACL = %q, want public-read", aws.StringValue(input.ACL))
	}
}

func TestS3WriteOptionsKeepPrivateDefault(t *testing.T) {
	if opts := s3WriteOptions(PrivateACL); opts != nil {
		t.Errorf("private objects should keep the bucket default, got %+v", opts)
	}
}
