// Package backup snapshots the SQLite stores and ships the copies to
// S3-compatible object storage.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Uploader stores one object under key.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, size int64) error
}

// Source is a database to snapshot. Name becomes the object's base name.
type Source struct {
	Name string
	DB   *sql.DB
}

// Object is one uploaded snapshot.
type Object struct {
	Key  string `json:"key" yaml:"key"`
	Size int64  `json:"size" yaml:"size"`
}

// Result describes a finished backup run.
type Result struct {
	ID      string    `json:"id" yaml:"id"`
	Taken   time.Time `json:"taken" yaml:"taken"`
	Objects []Object  `json:"objects" yaml:"objects"`
}

// Run snapshots every source with VACUUM INTO and uploads the copies under
// <prefix>/<UTC timestamp>-<run id>/. Snapshots are consistent per store;
// there is no cross-store snapshot.
func Run(ctx context.Context, up Uploader, prefix string, sources []Source, now time.Time) (*Result, error) {
	if len(sources) == 0 {
		return nil, errors.New("nothing to back up")
	}

	dir, err := os.MkdirTemp("", "oprema-backup-")
	if err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	defer os.RemoveAll(dir)

	res := &Result{ID: uuid.NewString(), Taken: now.UTC()}
	run := path.Join(prefix, res.Taken.Format("20060102T150405Z")+"-"+res.ID)

	for _, src := range sources {
		snapshot := filepath.Join(dir, src.Name)
		if _, err := src.DB.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
			return nil, fmt.Errorf("snapshotting %s: %w", src.Name, err)
		}

		obj, err := upload(ctx, up, path.Join(run, src.Name), snapshot)
		if err != nil {
			return nil, err
		}
		res.Objects = append(res.Objects, obj)
		slog.Info("backup uploaded", "store", src.Name, "key", obj.Key, "bytes", obj.Size)
	}

	return res, nil
}

func upload(ctx context.Context, up Uploader, key, file string) (Object, error) {
	f, err := os.Open(file)
	if err != nil {
		return Object{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("reading snapshot size: %w", err)
	}

	if err := up.Upload(ctx, key, f, info.Size()); err != nil {
		return Object{}, fmt.Errorf("uploading %s: %w", key, err)
	}
	return Object{Key: key, Size: info.Size()}, nil
}
