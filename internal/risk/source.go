package risk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source reads artifact files relative to a registry root.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads artifacts from a local directory.
type DirSource struct {
	Dir string
}

// Read loads name from the directory. Names may not escape it.
func (s DirSource) Read(_ context.Context, name string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("artifact path %q escapes registry directory", name)
	}
	return os.ReadFile(filepath.Join(s.Dir, clean))
}

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads artifacts from a bucket prefix.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Prefix string
}

// Read fetches prefix/name from the bucket.
func (s S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.Prefix, name)
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// S3Options configures the client built for s3:// registries.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// OpenSource resolves a registry URI to a Source and the manifest name within
// it. Plain paths are read from disk; s3://bucket/key reads from S3.
func OpenSource(ctx context.Context, uri string, opts S3Options) (Source, string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, "", errors.New("model registry location is required")
	}
	if !strings.HasPrefix(uri, "s3://") {
		return DirSource{Dir: filepath.Dir(uri)}, filepath.Base(uri), nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, "", fmt.Errorf("invalid s3 registry uri %q", uri)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return S3Source{Client: client, Bucket: bucket, Prefix: path.Dir(key)}, path.Base(key), nil
}
