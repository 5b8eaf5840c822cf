package archive

import (
	"context"
	"errors"
	"fmt"
)

// ByteRange represents an inclusive byte range for reads.
type ByteRange struct {
	Start int64
	End   int64
}

func (br *ByteRange) headerValue() *string {
	if br == nil {
		return nil
	}
	val := fmt.Sprintf("bytes=%d-%d", br.Start, br.End)
	return &val
}

// ObjectClient reads archived state-change file pairs from object storage.
// The analyzer never writes, so the surface is read-only.
type ObjectClient interface {
	StatObject(ctx context.Context, key string) (int64, error)
	DownloadRange(ctx context.Context, key string, rng *ByteRange) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]Object, error)
}

// Object describes a stored object.
type Object struct {
	Key  string
	Size int64
}

// S3Config describes connection details for AWS S3 or compatible endpoints.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// ErrObjectNotFound is returned by StatObject for keys that do not exist.
var ErrObjectNotFound = errors.New("object not found")
