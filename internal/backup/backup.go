// Package backup copies local projects to an S3-compatible bucket and
// restores them from it.
//
// Each project is stored as one object holding its unified tree:
//
//	<prefix>/<project>/project.yaml
//
// The flat layout is converted on the way up, so a restore always yields
// a unified project.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"gopkg.in/yaml.v3"

	"github.com/githubtower/ghtower/internal/board"
	"github.com/githubtower/ghtower/internal/config"
	"github.com/githubtower/ghtower/internal/store"
)

// RequestTimeout bounds every bucket request.
const RequestTimeout = 30 * time.Second

var (
	// ErrNotConfigured is returned when no bucket is configured.
	ErrNotConfigured = errors.New("backup bucket not configured (set s3.bucket)")

	// ErrNotFound is returned when a project has no backup.
	ErrNotFound = errors.New("backup not found")

	// ErrNoLocalProject is returned when backing up a project that does
	// not exist locally.
	ErrNoLocalProject = errors.New("local project not found")
)

// API is the subset of the S3 client used here.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewClient builds an S3 client from cfg. An empty endpoint uses AWS; a
// set endpoint targets an S3-compatible service such as MinIO. Without
// static keys the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("invalid S3 endpoint: %w", err)
		}
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Backup reads and writes project backups in one bucket.
type Backup struct {
	api    API
	bucket string
	prefix string
	logger *log.Logger
}

// New returns a Backup over api. A nil logger logs to stderr.
func New(api API, bucket, prefix string, logger *log.Logger) *Backup {
	if logger == nil {
		logger = log.New(os.Stderr, "[backup] ", log.LstdFlags)
	}
	return &Backup{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Key returns the object key of a project.
func (b *Backup) Key(project string) string {
	return path.Join(b.prefix, project, store.ProjectFile)
}

// Check verifies that the bucket exists and is reachable.
func (b *Backup) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("bucket %s does not exist", b.bucket)
		}
		return fmt.Errorf("failed to check bucket %s: %w", b.bucket, err)
	}
	return nil
}

// Save uploads the project held by st under the given name.
func (b *Backup) Save(ctx context.Context, project string, st *store.Store) error {
	tree, ok := st.LoadTree()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLocalProject, project)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode project %s: %w", project, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode project %s: %w", project, err)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	key := b.Key(project)
	_, err := b.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/yaml"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	b.logger.Printf("Uploaded %s (%d bytes)", key, buf.Len())
	return nil
}

// Load downloads the backup of a project.
func (b *Backup) Load(ctx context.Context, project string) (*board.Tree, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	key := b.Key(project)
	resp, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var tree board.Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if tree.Name == "" {
		tree.Name = project
	}
	return &tree, nil
}

// Restore downloads the backup of a project and writes it to st as a
// unified tree, replacing what is there.
func (b *Backup) Restore(ctx context.Context, project string, st *store.Store) (*board.Tree, error) {
	tree, err := b.Load(ctx, project)
	if err != nil {
		return nil, err
	}
	if err := st.SaveTree(tree); err != nil {
		return nil, fmt.Errorf("failed to save restored project: %w", err)
	}
	b.logger.Printf("Restored %s into %s", project, st.Dir())
	return tree, nil
}

// List returns the names of the backed up projects, sorted.
func (b *Backup) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if b.prefix != "" {
		prefix = b.prefix + "/"
	}

	var names []string
	p := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		page, err := p.NextPage(ctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to list backups: %w", err)
		}
		for _, obj := range page.Contents {
			rest := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			name, file, ok := strings.Cut(rest, "/")
			if ok && file == store.ProjectFile && name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	return false
}
