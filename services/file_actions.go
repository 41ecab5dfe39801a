package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordFiles keeps uploaded records on disk under <BaseDir>/<userID>/.
// The same tree is the inbox the record watcher observes.
type RecordFiles struct {
	BaseDir string
}

func NewRecordFiles(baseDir string) (*RecordFiles, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for RECORDS_DIR: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create records dir: %w", err)
	}
	return &RecordFiles{BaseDir: absPath}, nil
}

func (rf *RecordFiles) UserDir(userID string) string {
	return filepath.Join(rf.BaseDir, filepath.Base(userID))
}

// sanitize resolves filename inside the user's directory and rejects
// anything that would escape it.
func (rf *RecordFiles) sanitize(userID, filename string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("invalid user id")
	}
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	if !isSupportedRecord(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}

	dir := rf.UserDir(userID)
	cleanPath := filepath.Join(dir, name)
	if !strings.HasPrefix(cleanPath, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filename, attempts to escape records directory")
	}
	return cleanPath, nil
}

// Save writes data, replacing an existing file of the same name.
func (rf *RecordFiles) Save(userID, filename string, data []byte) (string, error) {
	path, err := rf.sanitize(userID, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create user records dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write record %q: %w", filename, err)
	}
	return path, nil
}

func (rf *RecordFiles) Remove(userID, filename string) error {
	path, err := rf.sanitize(userID, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %q: %w", filename, err)
	}
	return nil
}

// Owner maps a path inside BaseDir back to the user directory it lives in.
func (rf *RecordFiles) Owner(path string) (userID, filename string, ok bool) {
	rel, err := filepath.Rel(rf.BaseDir, path)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
