package storage

import (
	_ "gocloud.dev/blob/fileblob"
)

type ACL string

const (
	PrivateACL ACL = "private"
	PublicACL  ACL = "public-read"
)

// Bucket is where merged outputs and run artifacts are published.
type Bucket interface {
	Get(key string) (data []byte, err error)
	Store(key string, data []byte, acl ACL) (err error)
	Delete(key string) (err error)
}
