package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Config carries object storage connection settings.
type S3Config struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// S3ConfigFromEnv reads connection settings from S3_ENDPOINT,
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and S3_USE_SSL.
func S3ConfigFromEnv() S3Config {
	useSSL := true
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			useSSL = parsed
		}
	}
	return S3Config{
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		UseSSL:          useSSL,
	}
}

func (c S3Config) newClient() (*minio.Client, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	creds := credentials.NewEnvAWS()
	if c.AccessKeyID != "" {
		creds = credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, "")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for endpoint %s: %w", endpoint, err)
	}
	return client, nil
}

func (r *Resolver) resolveS3(ctx context.Context, ref string) ([]Document, error) {
	bucket, key, err := splitS3Ref(ref)
	if err != nil {
		return nil, err
	}
	client, err := r.S3.newClient()
	if err != nil {
		return nil, err
	}

	if !hasGlobMeta(key) {
		doc, err := r.fetchObject(ctx, client, bucket, key)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	prefix := literalPrefix(key)
	var docs []Document
	for object := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, object.Err)
		}
		matched, err := doublestar.Match(key, object.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", key, err)
		}
		if !matched {
			continue
		}
		doc, err := r.fetchObject(ctx, client, bucket, object.Key)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no objects match %q", ref)
	}
	return docs, nil
}

func (r *Resolver) fetchObject(ctx context.Context, client *minio.Client, bucket, key string) (Document, error) {
	object, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Document{}, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return Document{}, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}
	text, err := ExtractText(key, data)
	if err != nil {
		return Document{}, fmt.Errorf("extracting s3://%s/%s: %w", bucket, key, err)
	}
	r.logger().Debug("resolved S3 document",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return Document{Name: fmt.Sprintf("s3://%s/%s", bucket, key), Text: text}, nil
}

func splitS3Ref(ref string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(ref, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 reference %q, want s3://bucket/key", ref)
	}
	return bucket, key, nil
}

// literalPrefix returns the directory-like portion of pattern before its
// first glob metacharacter, used to narrow object listing.
func literalPrefix(pattern string) string {
	i := strings.IndexAny(pattern, "*?[{")
	if i < 0 {
		return pattern
	}
	if slash := strings.LastIndex(pattern[:i], "/"); slash >= 0 {
		return pattern[:slash+1]
	}
	return ""
}
