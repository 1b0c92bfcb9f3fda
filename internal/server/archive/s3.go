// Package archive copies assembled audio to S3-compatible object storage and
// hands out presigned download URLs for playback.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/medvoice/medvoice/internal/server/config"
)

const presignValidity = 15 * time.Minute

type S3Archiver struct {
	config *sc.Config
}

func NewS3Archiver(config *sc.Config) *S3Archiver {
	return &S3Archiver{config: config}
}

// StorageKey returns the object key for a recording's assembled audio.
func StorageKey(recordingID string) string {
	return path.Join("recordings", recordingID, "assembled_audio.wav")
}

func (a *S3Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if a.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload stores the assembled audio file under the recording's key,
// overwriting any previous archive of the same recording.
func (a *S3Archiver) Upload(ctx context.Context, recordingID string, filePath string) error {
	client, err := a.getClient(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open assembled audio: %w", err)
	}
	defer f.Close()

	bucket := a.config.S3Bucket
	key := StorageKey(recordingID)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

// PresignGetURL returns a time-limited download URL for the archived audio.
func (a *S3Archiver) PresignGetURL(ctx context.Context, recordingID string) (string, error) {
	client, err := a.getClient(ctx)
	if err != nil {
		return "", err
	}

	presignClient := s3.NewPresignClient(client)

	bucket := a.config.S3Bucket
	key := StorageKey(recordingID)

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
