package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
)

// ObjectStore is the slice of the S3 API the archiver needs. Satisfied by
// *s3.Client.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver exports savepoints to and imports them from an S3 bucket, as
// snappy-compressed JSON objects keyed by project and savepoint id.
// Archives outlive the backing database and move between deployments.
type Archiver struct {
	objects ObjectStore
	bucket  string
	prefix  string
	client  persistence.Client
	project string
	logger  logging.Logger
}

// NewArchiver builds an archiver over an existing S3 client.
func NewArchiver(objects ObjectStore, bucket, prefix string, client persistence.Client, projectID string, logger logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Archiver{
		objects: objects,
		bucket:  bucket,
		prefix:  prefix,
		client:  client,
		project: projectID,
		logger:  logger.With(logging.Component("savepoint-archive"), logging.ProjectID(projectID)),
	}
}

// NewArchiverFromEnv builds an archiver using the default AWS credential
// chain (environment, shared config, instance role).
func NewArchiverFromEnv(ctx context.Context, bucket, prefix string, client persistence.Client, projectID string, logger logging.Logger) (*Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewArchiver(s3.NewFromConfig(cfg), bucket, prefix, client, projectID, logger), nil
}

// archiveEnvelope is the stored object layout. Title and CreatedAt are
// kept alongside the state so an import can recreate the summary.
type archiveEnvelope struct {
	ProjectID string               `json:"projectId"`
	Savepoint model.Savepoint      `json:"savepoint"`
	State     model.SavepointState `json:"state"`
}

func (a *Archiver) key(savepointID string) string {
	return path.Join(a.prefix, a.project, savepointID+".snappy")
}

// Export uploads one savepoint. Returns the object key.
func (a *Archiver) Export(ctx context.Context, savepointID string) (string, error) {
	summaries, err := a.client.ListSavepoints(ctx)
	if err != nil {
		return "", err
	}
	var summary model.Savepoint
	found := false
	for _, sp := range summaries {
		if sp.ID == savepointID {
			summary, found = sp, true
			break
		}
	}
	if !found {
		return "", &persistence.RequestError{Op: "export", Entity: "savepoint", ID: savepointID, Cause: persistence.ErrNotFound}
	}
	state, err := a.client.GetSavepointState(ctx, savepointID)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(archiveEnvelope{ProjectID: a.project, Savepoint: summary, State: state})
	if err != nil {
		return "", fmt.Errorf("encoding savepoint archive: %w", err)
	}
	body := snappy.Encode(nil, raw)

	key := a.key(savepointID)
	_, err = a.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-snappy"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading savepoint archive: %w", err)
	}
	a.logger.Info("savepoint exported",
		logging.SavepointID(savepointID),
		logging.Path(key),
		logging.Int("bytes", len(body)))
	return key, nil
}

// Import downloads an archived savepoint and recreates it against the
// persistence collaborator under its original title. Returns the new
// savepoint summary.
func (a *Archiver) Import(ctx context.Context, savepointID string) (model.Savepoint, error) {
	key := a.key(savepointID)
	out, err := a.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return model.Savepoint{}, fmt.Errorf("downloading savepoint archive: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Savepoint{}, fmt.Errorf("reading savepoint archive: %w", err)
	}
	raw, err := snappy.Decode(nil, body)
	if err != nil {
		return model.Savepoint{}, fmt.Errorf("decompressing savepoint archive: %w", err)
	}
	var envelope archiveEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return model.Savepoint{}, fmt.Errorf("decoding savepoint archive: %w", err)
	}

	summary, err := a.client.CreateSavepoint(ctx, envelope.Savepoint.Title, envelope.State)
	if err != nil {
		return model.Savepoint{}, err
	}
	a.logger.Info("savepoint imported",
		logging.SavepointID(summary.ID),
		logging.String("title", summary.Title),
		logging.Path(key))
	return summary, nil
}
