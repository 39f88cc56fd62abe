package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// optional, e.g. "grades/"
	Prefix string
	// for local minio without TLS
	Insecure     bool
	RequestTrace io.Writer
}

// Minio keeps snapshots in S3-compatible storage (AWS S3, R2, B2, minio)
type Minio struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func NewMinio(ctx context.Context, config *MinioConfig) (*Minio, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide access, secret, bucket and endpoint in config")
	}

	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Minio{
		Client: mc,
		Bucket: c.Bucket,
		Prefix: strings.TrimPrefix(c.Prefix, "/"),
	}, nil
}

func (m *Minio) key(name string) string {
	return path.Join(m.Prefix, name)
}

func (m *Minio) Put(ctx context.Context, name string, d []byte) error {
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	r := bytes.NewReader(d)
	_, err := m.Client.PutObject(ctx, m.Bucket, m.key(name), r, int64(len(d)), opts)
	return err
}

func (m *Minio) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, m.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (m *Minio) List(ctx context.Context) ([]string, error) {
	prefix := m.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}
	var res []string
	for oi := range m.Client.ListObjects(ctx, m.Bucket, opts) {
		if oi.Err != nil {
			return nil, oi.Err
		}
		name := strings.TrimPrefix(oi.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		res = append(res, name)
	}
	return res, nil
}

func (m *Minio) String() string {
	return "bucket '" + m.Bucket + "' at " + m.Client.EndpointURL().Host
}
