package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/OFFIS-RIT/lexgraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewS3Client creates a path-style client for AWS_ENDPOINT with static
// credentials from the environment.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnvString("AWS_REGION", "us-east-1")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			util.GetEnv("AWS_ACCESS_KEY"),
			util.GetEnv("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// Bucket stores uploaded documents. Keys have the form
// <prefix>/<id>/<original name> so the object's base name stays the
// uploaded file name.
type Bucket struct {
	client *s3.Client
	name   string
}

func NewBucket(client *s3.Client, name string) *Bucket {
	return &Bucket{client: client, name: name}
}

// OpenBucket connects to the AWS_BUCKET bucket.
func OpenBucket(ctx context.Context) (*Bucket, error) {
	client, err := NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return NewBucket(client, util.GetEnvString("AWS_BUCKET", "lexgraph")), nil
}

func (b *Bucket) Client() *s3.Client { return b.client }
func (b *Bucket) Name() string       { return b.name }

// ObjectKey builds the key of an upload below prefix.
func ObjectKey(prefix, id, name string) string {
	return path.Join(prefix, id, path.Base(name))
}

// PutFile uploads file below prefix and returns its key.
func (b *Bucket) PutFile(ctx context.Context, prefix string, name string, file io.ReadSeeker) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := ObjectKey(prefix, id, name)

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(mime.TypeByExtension(path.Ext(name))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return key, nil
}

// DeleteFolder removes every object whose key starts with prefix.
func (b *Bucket) DeleteFolder(ctx context.Context, prefix string) error {
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	}

	for {
		listOutput, err := b.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return fmt.Errorf("failed to list objects in folder %s: %w", prefix, err)
		}

		if len(listOutput.Contents) == 0 {
			break
		}

		objects := make([]types.ObjectIdentifier, 0, len(listOutput.Contents))
		for _, obj := range listOutput.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}

		_, err = b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.name),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects in folder %s: %w", prefix, err)
		}

		if listOutput.IsTruncated == nil || !*listOutput.IsTruncated {
			break
		}
		listInput.ContinuationToken = listOutput.NextContinuationToken
	}

	return nil
}
