package aws

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var s3Client *s3.Client

func GetS3Client() *s3.Client {
	if s3Client == nil {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			log.Printf("Could not load default config: %s\n", err.Error())
			return nil
		}
		s3Client = s3.NewFromConfig(cfg)
	}
	return s3Client
}

// NewS3Client overrides the singleton, for tests.
func NewS3Client(client *s3.Client) *s3.Client {
	s3Client = client
	return s3Client
}

func assetsBucket() string {
	return os.Getenv("S3_ASSETS_BUCKET")
}

// S3UploadAsset stores an object under key and returns a presigned GET URL
// valid for one hour.
func S3UploadAsset(ctx context.Context, key string, body io.Reader, contentType string) (*string, error) {
	bucket := assetsBucket()
	client := GetS3Client()
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	err = s3.NewObjectExistsWaiter(client).Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for object %s to exist: %s\n", key, err.Error())
		return nil, err
	}
	log.Printf("Added object '%s' to bucket '%s'", key, bucket)
	return S3PresignAsset(ctx, key)
}

// S3PresignAsset returns a presigned GET URL for an existing object.
func S3PresignAsset(ctx context.Context, key string) (*string, error) {
	pre := s3.NewPresignClient(GetS3Client())
	r, err := pre.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket()),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = time.Duration(3600 * time.Second)
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return nil, err
	}
	return &r.URL, nil
}

// S3DownloadAsset reads an object into memory. A missing key is not an
// error and returns nil bytes.
func S3DownloadAsset(ctx context.Context, key string) ([]byte, error) {
	client := GetS3Client()
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket()),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, err
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}
