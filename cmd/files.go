package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"wheeltracker/config"
	"wheeltracker/models"
	"wheeltracker/transfer"
)

// readBulkFile decodes a CSV table, or a JSON or YAML record export, by file extension
func readBulkFile(path string) (models.BulkImport, error) {
	format, err := transfer.ParseFormat(filepath.Ext(path))
	if err != nil {
		return models.BulkImport{}, fmt.Errorf("cannot import %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return models.BulkImport{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if format == transfer.FormatCSV {
		records, err := transfer.ReadTable(f, transfer.TableOptions{})
		if err != nil {
			return models.BulkImport{}, err
		}
		return models.BulkImport{Records: records}, nil
	}
	return transfer.DecodeBulk(f, format)
}

// openFileApp loads a JSON or YAML state file into a memory-backed app.
// A missing file starts from an empty store.
func openFileApp(ctx context.Context, path, session string) (*app, error) {
	format, err := transfer.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if format == transfer.FormatCSV {
		return nil, fmt.Errorf("state file %s must be json or yaml", path)
	}

	a := newMemoryApp()

	bulk, err := readBulkFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("file", path).Debug("State file not found, starting empty")
		return a, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := a.tracker.ImportBulk(ctx, session, bulk); err != nil {
		return nil, err
	}
	return a, nil
}

// saveFileApp writes every session of a memory-backed app back to path.
// The file is replaced atomically through a temp file.
func saveFileApp(ctx context.Context, a *app, path string) error {
	format, err := transfer.ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}

	sessions, err := a.tracker.ExportSessions(ctx, nil)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".wheeltracker-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := transfer.EncodeRecords(tmp, format, sessions); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// withApp runs fn against the state file when one is given, otherwise against
// the configured store.
func withApp(ctx context.Context, stateFile, session string, fn func(a *app) error) error {
	if stateFile == "" {
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(a)
	}

	a, err := openFileApp(ctx, stateFile, session)
	if err != nil {
		return err
	}
	defer a.close()

	if err := fn(a); err != nil {
		return err
	}
	return saveFileApp(ctx, a, stateFile)
}

// warnIfEphemeral flags mutating commands that run on a memory store which is
// discarded when the command exits.
func warnIfEphemeral(stateFile string) bool {
	if stateFile != "" || config.Get().HasDatabase() {
		return false
	}
	log.Warn("DATABASE_URL not set and no --file given, changes are not persisted")
	return true
}
