package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/voxlane/voxlane/config"
)

// AWSRunner backs JobRunner with Amazon Transcribe. Jobs are named
// after the media key, and output lands next to the media in the same
// bucket under the transcription suffix.
type AWSRunner struct {
	client *transcribe.Client
	bucket string
}

func NewAWSRunner(cfg *config.StorageConfig) *AWSRunner {
	client := transcribe.NewFromConfig(aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})

	return &AWSRunner{
		client: client,
		bucket: cfg.Bucket,
	}
}

func (r *AWSRunner) GetJob(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	if err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return "", ErrJobNotFound
		}
		return "", fmt.Errorf("get transcription job: %w", err)
	}

	return string(out.TranscriptionJob.TranscriptionJobStatus), nil
}

func (r *AWSRunner) StartJob(ctx context.Context, filename string) (string, error) {
	out, err := r.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(filename),
		IdentifyLanguage:     aws.Bool(true),
		Media: &types.Media{
			MediaFileUri: aws.String(fmt.Sprintf("s3://%s/%s", r.bucket, filename)),
		},
		OutputBucketName: aws.String(r.bucket),
		OutputKey:        aws.String(filename + TranscriptionSuffix),
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}

	return string(out.TranscriptionJob.TranscriptionJobStatus), nil
}
