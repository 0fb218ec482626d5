// Package importer applies record files dropped into a watched directory.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/store"
)

var ErrInvalidEnvelope = errors.New("invalid import envelope")

// rejectedSuffix is appended to files that can never be applied.
const rejectedSuffix = ".rejected"

// Envelope is the content of one import file: a record body to store, or a
// delete of the addressed record.
type Envelope struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data,omitempty"`
	Delete     bool            `json:"delete,omitempty"`
}

// Store is where imported records are written.
type Store interface {
	SetRaw(ctx context.Context, key store.Key, data []byte) error
	Delete(ctx context.Context, key store.Key) error
}

// collections maps importable collections to whether their bodies carry
// their own id.
var collections = map[string]bool{
	constants.SongsCollection:         true,
	constants.AlbumsCollection:        true,
	constants.SongAlbumsCollection:    false,
	constants.DiscographiesCollection: true,
}

// Importer watches a directory for *.json envelope files. A file is applied
// once it has been quiet for QuietPeriod, then removed.
type Importer struct {
	dir         string
	store       Store
	logger      *logger.Logger
	QuietPeriod time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func New(dir string, s Store, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Default()
	}
	return &Importer{
		dir:         dir,
		store:       s,
		logger:      log.WithComponent("importer"),
		QuietPeriod: constants.DefaultImportQuietPeriod,
		pending:     make(map[string]*time.Timer),
	}
}

// Run watches the directory until ctx is done. Files already present are
// scheduled first. Pending imports are cancelled and running ones awaited
// before Run returns.
func (im *Importer) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(im.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", im.dir, err)
	}
	im.logger.Info("Watching import directory", "dir", im.dir, "quiet_period", im.QuietPeriod)

	im.InitialScan(ctx)

	defer func() {
		im.stopPending()
		im.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && isImportFile(event.Name) {
				im.logger.Debug("Import file changed", "file", event.Name, "op", event.Op.String())
				im.Trigger(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("Watcher error", "error", err)
		}
	}
}

// InitialScan schedules every import file already in the directory.
func (im *Importer) InitialScan(ctx context.Context) {
	entries, err := os.ReadDir(im.dir)
	if err != nil {
		im.logger.Error("Failed to read import directory", "dir", im.dir, "error", err)
		return
	}
	for _, entry := range entries {
		path := filepath.Join(im.dir, entry.Name())
		if !entry.IsDir() && isImportFile(path) {
			im.Trigger(ctx, path)
		}
	}
}

// Trigger schedules path for import after the quiet period, restarting the
// wait if it is already scheduled.
func (im *Importer) Trigger(ctx context.Context, path string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if timer, ok := im.pending[path]; ok && timer.Stop() {
		im.wg.Done()
	}

	im.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(im.QuietPeriod, func() {
		defer im.wg.Done()

		im.mu.Lock()
		if im.pending[path] == timer {
			delete(im.pending, path)
		}
		im.mu.Unlock()

		if err := im.ImportFile(ctx, path); err != nil {
			im.logger.Error("Failed to import file", "file", path, "error", err)
		}
	})
	im.pending[path] = timer
}

func (im *Importer) stopPending() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for path, timer := range im.pending {
		if timer.Stop() {
			im.wg.Done()
		}
		delete(im.pending, path)
	}
}

// ImportFile applies one envelope file and removes it. Files that can never
// apply are renamed with a .rejected suffix; files that failed on a store
// error are left for the next attempt.
func (im *Importer) ImportFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	env, err := parseEnvelope(content)
	if err != nil {
		if rErr := os.Rename(path, path+rejectedSuffix); rErr != nil {
			im.logger.Error("Failed to reject import file", "file", path, "error", rErr)
		}
		return err
	}

	key := store.Doc(env.Collection, env.ID)
	log := im.logger.WithRecord(key.Collection, key.ID)
	if env.Delete {
		err = im.store.Delete(ctx, key)
	} else {
		err = im.store.SetRaw(ctx, key, env.Data)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", key, err)
	}
	log.Info("Imported record", "file", filepath.Base(path), "delete", env.Delete)

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func parseEnvelope(content []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	hasID, ok := collections[env.Collection]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", ErrInvalidEnvelope, env.Collection)
	}
	if env.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidEnvelope)
	}
	if env.Delete {
		return &env, nil
	}

	if !gjson.ParseBytes(env.Data).IsObject() {
		return nil, fmt.Errorf("%w: data must be a JSON object", ErrInvalidEnvelope)
	}
	if hasID {
		data, err := sjson.SetBytes(env.Data, "id", env.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		env.Data = data
	}
	return &env, nil
}

func isImportFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
