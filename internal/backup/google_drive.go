package backup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	jsonMimeType   = "application/json"
)

type GoogleDriveUploader struct {
	service  *drive.Service
	folderID string
}

// NewGoogleDriveUploaderFromCredentials authenticates with a service account
// credentials json and traces every outgoing drive request.
func NewGoogleDriveUploaderFromCredentials(
	ctx context.Context,
	credentialsJson []byte,
	folderName string,
) (*GoogleDriveUploader, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJson, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)

	return NewGoogleDriveUploader(ctx, folderName, option.WithHTTPClient(httpClient))
}

// NewGoogleDriveUploader finds the backups folder by name, creating it when missing.
func NewGoogleDriveUploader(
	ctx context.Context,
	folderName string,
	opts ...option.ClientOption,
) (*GoogleDriveUploader, error) {
	if folderName == "" {
		return nil, fmt.Errorf("backups folder name not set")
	}

	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	u := &GoogleDriveUploader{
		service: driveService,
	}

	folderID, err := u.findFolder(ctx, folderName)
	if err != nil {
		return nil, err
	}

	if folderID == "" {
		log.Printf("backups folder [%s] not found, creating ...", folderName)
		folderID, err = u.createFolder(ctx, folderName)
		if err != nil {
			return nil, fmt.Errorf("failed to create backups folder: %w", err)
		}
		log.Printf("new backups folder created: %s", folderID)
	} else {
		log.Printf("found backups folder ID: %s", folderID)
	}

	u.folderID = folderID

	return u, nil
}

func (u *GoogleDriveUploader) FolderID() string {
	return u.folderID
}

func (u *GoogleDriveUploader) findFolder(ctx context.Context, folderName string) (string, error) {
	folderQuery := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", folderMimeType, folderName)
	found, err := u.service.
		Files.List().
		Q(folderQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve files: %w", err)
	}

	switch len(found.Files) {
	case 0:
		return "", nil
	case 1:
		return found.Files[0].Id, nil
	default:
		log.Warnf("attention: found %d backups folders, will take the first one: %s", len(found.Files), found.Files[0].Id)
		return found.Files[0].Id, nil
	}
}

func (u *GoogleDriveUploader) createFolder(ctx context.Context, folderName string) (string, error) {
	folderMeta := &drive.File{
		Name:     folderName,
		MimeType: folderMimeType,
	}

	created, err := u.service.
		Files.Create(folderMeta).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}

	return created.Id, nil
}

// Upload stores the snapshot as a new json file in the backups folder and returns its drive file ID.
func (u *GoogleDriveUploader) Upload(ctx context.Context, snapshot *Snapshot) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backup.drive.upload")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := snapshot.Marshal()
	if err != nil {
		return "", err
	}

	fileName := snapshot.FileName()
	span.SetAttributes(
		attribute.String("backup.file", fileName),
		attribute.Int("backup.bytes", len(data)),
	)

	fileMeta := &drive.File{
		Name:     fileName,
		MimeType: jsonMimeType,
		Parents:  []string{u.folderID},
	}

	created, err := u.service.
		Files.Create(fileMeta).
		Fields("id, parents").
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%s: failed to create backup file: %w", fileName, err)
	}

	log.Printf("%s: backup file with %d users saved: %s", fileName, snapshot.UsersCount, created.Id)

	return created.Id, nil
}
