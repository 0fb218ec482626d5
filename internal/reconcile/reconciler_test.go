package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/store"
)

// recordingStore wraps the SQLite store, counting writes and failing reads
// of selected keys.
type recordingStore struct {
	RecordStore

	mu       sync.Mutex
	writes   int
	commits  int
	failGets map[store.Key]error
	// beforeCommit, when set, runs once ahead of the next batch commit.
	beforeCommit func()
}

type recordingBatch struct {
	Batch
	s       *recordingStore
	updates int
}

func (s *recordingStore) Get(ctx context.Context, key store.Key, dest any) (bool, error) {
	s.mu.Lock()
	err := s.failGets[key]
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	return s.RecordStore.Get(ctx, key, dest)
}

func (s *recordingStore) Set(ctx context.Context, key store.Key, v any) error {
	s.count()
	return s.RecordStore.Set(ctx, key, v)
}

func (s *recordingStore) SetMerge(ctx context.Context, key store.Key, v any) error {
	s.count()
	return s.RecordStore.SetMerge(ctx, key, v)
}

func (s *recordingStore) Delete(ctx context.Context, key store.Key) error {
	s.count()
	return s.RecordStore.Delete(ctx, key)
}

func (s *recordingStore) NewBatch() Batch {
	return &recordingBatch{Batch: s.RecordStore.NewBatch(), s: s}
}

func (b *recordingBatch) Update(key store.Key, fields store.Fields) {
	b.updates++
	b.Batch.Update(key, fields)
}

func (b *recordingBatch) Commit(ctx context.Context) error {
	b.s.mu.Lock()
	b.s.commits++
	b.s.writes += b.updates
	hook := b.s.beforeCommit
	b.s.beforeCommit = nil
	b.s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return b.Batch.Commit(ctx)
}

func (s *recordingStore) count() {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	s.writes, s.commits = 0, 0
	s.mu.Unlock()
}

func (s *recordingStore) failGet(key store.Key, err error) {
	s.mu.Lock()
	if s.failGets == nil {
		s.failGets = make(map[store.Key]error)
	}
	s.failGets[key] = err
	s.mu.Unlock()
}

func setupTestReconciler(t *testing.T, opts Options) (*Reconciler, *recordingStore, *store.DB) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	rs := &recordingStore{RecordStore: Store(db)}
	return New(rs, logger.Discard(), opts), rs, db
}

func title(english string) domain.Title {
	return domain.Title{
		English: english,
		Chinese: domain.ChineseTitle{Traditional: english + "-zht", Pinyin: english + "-zhp", English: english + "-eng"},
	}
}

func put(t *testing.T, db *store.DB, collection, id string, v any) {
	t.Helper()
	if err := db.Set(context.Background(), store.Doc(collection, id), v); err != nil {
		t.Fatalf("Set %s/%s failed: %v", collection, id, err)
	}
}

func getAlbum(t *testing.T, db *store.DB, id string) domain.Album {
	t.Helper()
	var album domain.Album
	ok, err := db.Get(context.Background(), store.Doc(constants.AlbumsCollection, id), &album)
	if err != nil || !ok {
		t.Fatalf("Get album %s: ok=%v err=%v", id, ok, err)
	}
	return album
}

func getDisco(t *testing.T, db *store.DB) domain.Discography {
	t.Helper()
	var disco domain.Discography
	ok, err := db.Get(context.Background(), store.Doc(constants.DiscographiesCollection, constants.DefaultDiscographyID), &disco)
	if err != nil || !ok {
		t.Fatalf("Get discography: ok=%v err=%v", ok, err)
	}
	return disco
}

func TestNew_DefaultsDiscographyID(t *testing.T) {
	r, _, _ := setupTestReconciler(t, Options{})
	if got := r.discographyKey().ID; got != constants.DefaultDiscographyID {
		t.Errorf("Expected %s, got %s", constants.DefaultDiscographyID, got)
	}
}

func TestCommitSlotOps_SkipsFailedLookups(t *testing.T) {
	r, rs, db := setupTestReconciler(t, Options{})
	ctx := context.Background()

	put(t, db, constants.AlbumsCollection, "a1", domain.Album{ID: "a1"})
	put(t, db, constants.AlbumsCollection, "a2", domain.Album{ID: "a2"})
	put(t, db, constants.SongsCollection, "s1", domain.Song{ID: "s1", Title: title("Song")})
	rs.failGet(albumKey("a2"), errors.New("store unavailable"))

	r.MembershipCreated(ctx, "s1", domain.Membership{"a1": 1, "a2": 2})

	if rs.commits != 1 {
		t.Fatalf("Expected 1 commit, got %d", rs.commits)
	}
	if got := getAlbum(t, db, "a1").Occupant(1); got != "s1" {
		t.Errorf("Expected s1 at a1#1, got %q", got)
	}
	if got := getAlbum(t, db, "a2").Occupant(2); got != "" {
		t.Errorf("Expected a2#2 to stay empty, got %q", got)
	}
}
