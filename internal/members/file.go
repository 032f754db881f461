package members

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/nfrund/together/internal/domain"
)

// FileDirectory serves members from a JSON array on disk. The file is read
// once by Load and again on every change while Watch runs.
type FileDirectory struct {
	fs     afero.Fs
	path   string
	images *ImageURLs

	mu      sync.RWMutex
	members map[domain.MemberID]domain.Member

	logger *slog.Logger
}

// NewFileDirectory creates a directory over path in fs. Call Load before use.
func NewFileDirectory(fs afero.Fs, path string, images *ImageURLs) *FileDirectory {
	return &FileDirectory{
		fs:      fs,
		path:    path,
		images:  images,
		members: make(map[domain.MemberID]domain.Member),
		logger:  slog.Default().With("service", "members", "file", path),
	}
}

// Load reads and validates the file, replacing the current contents. On
// error the previous contents are kept.
func (d *FileDirectory) Load() error {
	raw, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		return fmt.Errorf("read member file: %w", err)
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("decode member file: %w", err)
	}

	var errs []error
	for _, r := range records {
		if err := r.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid member file: %w", errors.Join(errs...))
	}

	members := lo.SliceToMap(records, func(r record) (domain.MemberID, domain.Member) {
		return domain.MemberID(r.Idx), r.toMember(d.images)
	})

	d.mu.Lock()
	d.members = members
	d.mu.Unlock()

	d.logger.Info("member file loaded", "members", len(members))
	return nil
}

// Len returns the number of loaded members.
func (d *FileDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.members)
}

// Lookup implements together.MemberLookup.
func (d *FileDirectory) Lookup(_ context.Context, id domain.MemberID) (domain.Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.members[id]
	if !ok {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, domain.ErrMemberNotFound)
	}
	return m, nil
}

// Watch reloads the file whenever it changes on the OS filesystem, until
// ctx is done. It watches the parent directory so editors that replace the
// file by rename are picked up. Reload failures are logged and the last
// good contents stay in place.
func (d *FileDirectory) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(d.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := d.Load(); err != nil {
					d.logger.Warn("member file reload failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Error("member file watcher error", "error", err)
			}
		}
	}()
	return nil
}
