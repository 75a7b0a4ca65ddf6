// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package actions

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"

	coreerrors "github.com/juju/beszel-operator/core/errors"
	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
	"github.com/juju/beszel-operator/internal/s3client"
	"github.com/juju/beszel-operator/internal/servicespec"
)

const (
	// DatabaseFile is the hub's live database, inside its data directory.
	DatabaseFile = "data.db"

	// BackupSubdir holds the backups, inside the data directory. Backups
	// are never deleted by the operator.
	BackupSubdir = "backups"

	// BackupPattern is the glob matching backup files.
	BackupPattern = "beszel-backup-*.db"

	backupPrefix    = "beszel-backup-"
	timestampLayout = "20060102-150405"

	// cleanupTimeout bounds the removal of a timed out backup, which runs
	// after the action's own deadline has passed.
	cleanupTimeout = 10 * time.Second
)

var backupName = regexp.MustCompile(`^beszel-backup-\d{8}-\d{6}\.db$`)

func (h *Handlers) databasePath() string {
	return path.Join(servicespec.DataDir(h.config.StorageLocation), DatabaseFile)
}

func (h *Handlers) backupDir() string {
	return path.Join(servicespec.DataDir(h.config.StorageLocation), BackupSubdir)
}

// BackupRecord describes one backup file.
type BackupRecord struct {
	Filename string
	Path     string
	Size     int64
	Modified time.Time
}

// BackupList is the result of listing backups.
type BackupList []BackupRecord

// Results renders the action output.
func (l BackupList) Results() map[string]any {
	backups := make([]map[string]any, len(l))
	for i, b := range l {
		modified := ""
		if !b.Modified.IsZero() {
			modified = b.Modified.UTC().Format(time.RFC3339)
		}
		backups[i] = map[string]any{
			"filename": b.Filename,
			"path":     b.Path,
			"size":     strconv.FormatInt(b.Size, 10),
			"modified": modified,
		}
	}
	return map[string]any{"backups": backups}
}

// BackupResult describes a backup just taken.
type BackupResult struct {
	Path      string
	Timestamp string
	Filename  string

	// S3URI is set when the backup was also uploaded to object storage.
	S3URI string
}

// Results renders the action output.
func (r BackupResult) Results() map[string]any {
	results := map[string]any{
		"backup-path": r.Path,
		"timestamp":   r.Timestamp,
		"filename":    r.Filename,
	}
	if r.S3URI != "" {
		results["s3-uri"] = r.S3URI
	}
	return results
}

// TriggerBackup copies the live database into the backup directory. When
// S3 backups are enabled and credentials are available the copy is also
// uploaded; a failed upload does not fail the backup.
func (h *Handlers) TriggerBackup(
	ctx context.Context, cfg *config.Config, storage relation.ObjectStorageFact,
) (BackupResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	opID := newOperationID()
	release, err := h.acquire(ctx, BackupNow, opID)
	if err != nil {
		return BackupResult{}, errors.Trace(err)
	}
	defer release()

	timestamp := h.config.Clock.Now().UTC().Format(timestampLayout)
	filename := backupPrefix + timestamp + ".db"
	target := path.Join(h.backupDir(), filename)

	// Two backups in the same second would share a name; the earlier one
	// is kept and the later refused.
	existing, err := h.config.Workload.ListFiles(ctx, h.backupDir(), filename)
	if err != nil {
		return BackupResult{}, storageError(err, "checking backup directory")
	}
	if len(existing) > 0 {
		return BackupResult{}, errors.AlreadyExistsf("backup %s", filename)
	}

	data, err := h.config.Workload.ReadFile(ctx, h.databasePath())
	if err != nil {
		return BackupResult{}, storageError(err, "reading database")
	}
	if err := h.config.Workload.WriteFile(ctx, target, data); err != nil {
		// A rejected write leaves nothing behind. A write cut off by the
		// deadline may still have landed, and nothing else can own target.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			h.removeLateBackup(ctx, opID, target)
		}
		return BackupResult{}, storageError(err, "writing backup")
	}
	h.config.Logger.Infof("[%s] backup written to %s (%s)", opID, target, humanize.Bytes(uint64(len(data))))

	result := BackupResult{
		Path:      target,
		Timestamp: timestamp,
		Filename:  filename,
	}
	if cfg != nil && cfg.S3BackupEnabled && storage.Ready {
		uri, err := h.upload(ctx, storage, filename, data)
		if err != nil {
			h.config.Logger.Warningf("[%s] backup kept locally, upload failed: %v", opID, err)
		} else {
			h.config.Logger.Infof("[%s] backup uploaded to %s", opID, uri)
			result.S3URI = uri
		}
	}
	return result, nil
}

func (h *Handlers) removeLateBackup(ctx context.Context, opID, target string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := h.config.Workload.RemoveFile(ctx, target); err != nil {
		h.config.Logger.Warningf("[%s] removing timed out backup %s: %v", opID, target, err)
	}
}

func (h *Handlers) upload(ctx context.Context, storage relation.ObjectStorageFact, filename string, data []byte) (string, error) {
	session, err := h.config.NewS3Session(s3client.Credentials{
		Endpoint:  storage.Endpoint,
		Bucket:    storage.Bucket,
		Region:    storage.Region,
		AccessKey: storage.AccessKey,
		SecretKey: storage.SecretKey,
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	uri, err := session.PutObject(ctx, filename, data)
	return uri, errors.Trace(err)
}

// ListBackups returns the backups in the backup directory, oldest first.
func (h *Handlers) ListBackups(ctx context.Context) ([]BackupRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	release, err := h.acquire(ctx, ListBackupsName, newOperationID())
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer release()

	files, err := h.config.Workload.ListFiles(ctx, h.backupDir(), BackupPattern)
	if err != nil {
		return nil, storageError(err, "listing backups")
	}
	backups := make([]BackupRecord, 0, len(files))
	for _, f := range files {
		if !backupName.MatchString(f.Name) {
			continue
		}
		backups = append(backups, BackupRecord{
			Filename: f.Name,
			Path:     f.Path,
			Size:     f.Size,
			Modified: f.ModTime,
		})
	}
	// The timestamp layout sorts chronologically.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Filename < backups[j].Filename
	})
	return backups, nil
}

// storageError reports err as a storage failure, unless the workload could
// not be reached at all.
func storageError(err error, op string) error {
	err = errors.Annotate(err, op)
	if errors.Is(err, coreerrors.WorkloadUnavailable) {
		return err
	}
	return errors.WithType(err, coreerrors.StorageUnavailable)
}
