package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/deepnote/internal/common"
	sc "github.com/dmitrijs2005/deepnote/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// PresignedURL is a time-limited object-storage link.
type PresignedURL struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// AudioService hands out presigned S3 URLs for voice note recordings.
// Clients move the bytes themselves; the server only signs.
type AudioService struct {
	notes  *NoteService
	config *sc.Config
}

// NewAudioService constructs an AudioService. Ownership checks go through
// notes.
func NewAudioService(notes *NoteService, config *sc.Config) *AudioService {
	return &AudioService{notes: notes, config: config}
}

func (s *AudioService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *AudioService) validity() time.Duration {
	if s.config.AudioURLValidityDuration > 0 {
		return s.config.AudioURLValidityDuration
	}
	return 15 * time.Minute
}

func audioContentType(ct string) bool {
	return strings.HasPrefix(ct, "audio/") || ct == "application/octet-stream"
}

// UploadURL signs a PUT for a new recording of a note the user owns. The
// returned key is what the client stores in the note's audio_key.
func (s *AudioService) UploadURL(ctx context.Context, userID, noteID, contentType string) (*PresignedURL, error) {
	if !audioContentType(contentType) {
		return nil, fmt.Errorf("%w: unsupported content type %q", common.ErrValidation, contentType)
	}
	if _, err := s.notes.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := AudioKeyPrefix(userID, noteID) + uuid.NewString()
	validity := s.validity()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, err
	}

	return &PresignedURL{URL: req.URL, Key: key, ExpiresAt: time.Now().Add(validity)}, nil
}

// DownloadURL signs a GET for the note's recording. Notes without one yield
// common.ErrorNotFound.
func (s *AudioService) DownloadURL(ctx context.Context, userID, noteID string) (*PresignedURL, error) {
	n, err := s.notes.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if n.AudioKey == nil || *n.AudioKey == "" {
		return nil, fmt.Errorf("%w: note has no recording", common.ErrorNotFound)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	validity := s.validity()

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    n.AudioKey,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, err
	}

	return &PresignedURL{URL: req.URL, Key: *n.AudioKey, ExpiresAt: time.Now().Add(validity)}, nil
}
