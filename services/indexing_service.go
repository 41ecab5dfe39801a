package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RecordInbox keeps the record index in sync with files dropped into
// RECORDS_DIR/<userId>/.
type RecordInbox struct {
	records RecordService
	files   *RecordFiles
	logger  *zap.Logger
}

func NewRecordInbox(records RecordService, files *RecordFiles, logger *zap.Logger) *RecordInbox {
	return &RecordInbox{
		records: records,
		files:   files,
		logger:  logger.Named("inbox"),
	}
}

// ScanAndIndex walks the inbox once and indexes every new or changed file.
func (s *RecordInbox) ScanAndIndex(ctx context.Context) {
	s.logger.Info("scanning records inbox", zap.String("dir", s.files.BaseDir))

	indexed := 0
	err := filepath.Walk(s.files.BaseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() || !isSupportedRecord(path) {
			return nil
		}
		if s.indexPath(ctx, path) {
			indexed++
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("error walking records inbox", zap.Error(err))
	}
	s.logger.Info("records inbox scan finished", zap.Int("indexed", indexed))
}

// Watch blocks until ctx is done, re-indexing files on create/write and
// dropping them from the index on remove/rename.
func (s *RecordInbox) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := s.addDirs(watcher); err != nil {
		return err
	}
	s.logger.Info("watching records inbox", zap.String("dir", s.files.BaseDir))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			s.logger.Info("records inbox watcher stopped")
			return nil
		}
	}
}

// addDirs registers the inbox root and each user directory. fsnotify does not
// recurse on its own.
func (s *RecordInbox) addDirs(watcher *fsnotify.Watcher) error {
	if err := watcher.Add(s.files.BaseDir); err != nil {
		return err
	}
	entries, err := os.ReadDir(s.files.BaseDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := watcher.Add(filepath.Join(s.files.BaseDir, e.Name())); err != nil {
			s.logger.Warn("could not watch user dir", zap.String("dir", e.Name()), zap.Error(err))
		}
	}
	return nil
}

func (s *RecordInbox) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == s.files.BaseDir {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				s.logger.Warn("could not watch new user dir", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	if !isSupportedRecord(event.Name) {
		return
	}
	s.logger.Debug("watcher event", zap.String("event", event.String()))

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		s.indexPath(ctx, event.Name)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		userID, filename, ok := s.files.Owner(event.Name)
		if !ok {
			return
		}
		if err := s.records.RemoveFile(ctx, userID, filename); err != nil {
			s.logger.Error("failed to remove record from index", zap.String("path", event.Name), zap.Error(err))
			return
		}
		s.logger.Info("record removed from index", zap.String("path", event.Name))
	}
}

func (s *RecordInbox) indexPath(ctx context.Context, path string) bool {
	userID, filename, ok := s.files.Owner(path)
	if !ok {
		s.logger.Debug("ignoring file outside a user dir", zap.String("path", path))
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("could not read record file", zap.String("path", path), zap.Error(err))
		return false
	}

	changed, err := s.records.IndexFile(ctx, userID, filename, data)
	if err != nil {
		s.logger.Error("failed to index record file", zap.String("path", path), zap.Error(err))
		return false
	}
	if changed {
		s.logger.Info("record indexed from inbox", zap.String("path", path))
	}
	return changed
}
