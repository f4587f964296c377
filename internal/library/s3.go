package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/ivlev/animatedimage/internal/config"
)

const videoContentType = "video/quicktime"

// objectPutter is the part of *s3.Client the library needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Library uploads videos to a bucket under an optional key prefix.
type S3Library struct {
	Bucket string
	Prefix string

	client objectPutter
}

// NewS3Library uses the default AWS configuration chain, with region,
// profile and path-style addressing taken from cfg when set.
func NewS3Library(ctx context.Context, cfg config.Library) (*S3Library, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 library: bucket is empty")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Library{Bucket: cfg.Bucket, Prefix: cfg.Prefix, client: c}, nil
}

func (l *S3Library) Save(ctx context.Context, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := path.Join(l.Prefix, filepath.Base(p))
	_, err = l.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(l.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String(videoContentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("upload s3://%s/%s: %s: %s", l.Bucket, key, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("upload s3://%s/%s: %w", l.Bucket, key, err)
	}

	return fmt.Sprintf("s3://%s/%s", l.Bucket, key), nil
}
