package sources

import (
	"context"
	"fmt"
	"io"
	"sort"

	"similarity-detector/src/monitoring"
	"similarity-detector/src/parser"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cactus/go-statsd-client/v5/statsd"
)

// S3Source reads a corpus of .txt and .html objects under a bucket prefix.
type S3Source struct {
	s3Client     *s3.Client
	bucket       string
	prefix       string
	statsdClient statsd.Statter
}

func NewS3Source(ctx context.Context, region, bucket, prefix string, statsdClient statsd.Statter) (*S3Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Source{
		s3Client:     s3.NewFromConfig(cfg),
		bucket:       bucket,
		prefix:       prefix,
		statsdClient: statsdClient,
	}, nil
}

func (s *S3Source) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			monitoring.Increment("failed-list-corpus", s.statsdClient)
			return nil, fmt.Errorf("failed to list corpus objects in bucket %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if isCorpusFile(key) {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *S3Source) Load(ctx context.Context, key string) (string, error) {
	obj, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		monitoring.Increment("failed-download-document", s.statsdClient)
		return "", fmt.Errorf("failed to download document %s: %w", key, err)
	}
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read document body %s: %w", key, err)
	}

	monitoring.Increment("documents.loaded", s.statsdClient)
	if isHTML(key) {
		return parser.ExtractText(string(body)), nil
	}
	return string(body), nil
}
