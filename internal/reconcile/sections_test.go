package reconcile

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/domain"
	"github.com/cesargomez89/discosync/internal/store"
)

func boolPtr(b bool) *bool { return &b }

func seedDisco(t *testing.T, db *store.DB, sections ...domain.Section) {
	t.Helper()
	put(t, db, constants.DiscographiesCollection, constants.DefaultDiscographyID, domain.Discography{
		ID:       constants.DefaultDiscographyID,
		Sections: sections,
	})
}

func sectionIDs(s domain.Section) []string {
	ids := make([]string, len(s.Albums))
	for i, a := range s.Albums {
		ids[i] = a.ID
	}
	return ids
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func studioWithAlbum1() domain.Section {
	return domain.Section{Type: domain.AlbumTypeStudio, Albums: []domain.AlbumMetadata{{ID: "album1"}}}
}

func album2(t domain.AlbumType) domain.Album {
	return domain.Album{ID: "album2", Type: t, Title: title("T"), ReleaseDate: "2013-08-24", Disabled: true}
}

func TestAlbumCreated_AppendsToExistingSection(t *testing.T) {
	r, rs, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, studioWithAlbum1())

	r.AlbumCreated(context.Background(), "album2", album2(domain.AlbumTypeStudio))

	disco := getDisco(t, db)
	if len(disco.Sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(disco.Sections))
	}
	studio := disco.Sections[0]
	if !equalIDs(sectionIDs(studio), "album1", "album2") {
		t.Fatalf("Unexpected albums: %v", sectionIDs(studio))
	}
	got := studio.Albums[1]
	if got.Title == nil || !domain.TitlesEqual(*got.Title, title("T")) {
		t.Errorf("Unexpected title: %+v", got.Title)
	}
	if got.ReleaseDate != "2013-08-24" || got.Disabled == nil || !*got.Disabled {
		t.Errorf("Unexpected summary: %+v", got)
	}
	if rs.writes != 1 {
		t.Errorf("Expected one aggregate write, got %d", rs.writes)
	}
}

func TestAlbumCreated_AppendsNewSection(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, studioWithAlbum1())

	r.AlbumCreated(context.Background(), "album2", album2(domain.AlbumTypeCompilation))

	disco := getDisco(t, db)
	if len(disco.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(disco.Sections))
	}
	if !equalIDs(sectionIDs(disco.Sections[0]), "album1") {
		t.Errorf("Studio section changed: %v", sectionIDs(disco.Sections[0]))
	}
	if disco.Sections[1].Type != domain.AlbumTypeCompilation || !equalIDs(sectionIDs(disco.Sections[1]), "album2") {
		t.Errorf("Unexpected new section: %+v", disco.Sections[1])
	}
}

func TestAlbumCreated_NoSectionsYet(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	put(t, db, constants.DiscographiesCollection, constants.DefaultDiscographyID, map[string]any{"id": constants.DefaultDiscographyID})

	r.AlbumCreated(context.Background(), "album2", album2(domain.AlbumTypeEP))

	disco := getDisco(t, db)
	if len(disco.Sections) != 1 || disco.Sections[0].Type != domain.AlbumTypeEP {
		t.Errorf("Expected one ep section, got %+v", disco.Sections)
	}
}

func TestAlbumCreated_NoOps(t *testing.T) {
	t.Run("untyped album", func(t *testing.T) {
		r, rs, db := setupTestReconciler(t, Options{})
		seedDisco(t, db, studioWithAlbum1())

		r.AlbumCreated(context.Background(), "album2", album2(""))

		if rs.writes != 0 {
			t.Errorf("Expected no writes, got %d", rs.writes)
		}
	})

	t.Run("missing discography", func(t *testing.T) {
		r, rs, _ := setupTestReconciler(t, Options{})

		r.AlbumCreated(context.Background(), "album2", album2(domain.AlbumTypeStudio))

		if rs.writes != 0 {
			t.Errorf("Expected no writes, got %d", rs.writes)
		}
	})
}

func TestAlbumCreated_Idempotent(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, studioWithAlbum1())
	ctx := context.Background()

	r.AlbumCreated(ctx, "album2", album2(domain.AlbumTypeStudio))
	r.AlbumCreated(ctx, "album2", album2(domain.AlbumTypeStudio))

	if ids := sectionIDs(getDisco(t, db).Sections[0]); !equalIDs(ids, "album1", "album2") {
		t.Errorf("Expected album2 listed once, got %v", ids)
	}
}

func TestAlbumCreated_UsesConfiguredDiscography(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{DiscographyID: "other"})
	put(t, db, constants.DiscographiesCollection, "other", domain.Discography{ID: "other"})

	r.AlbumCreated(context.Background(), "album2", album2(domain.AlbumTypeStudio))

	var disco domain.Discography
	if _, err := db.Get(context.Background(), store.Doc(constants.DiscographiesCollection, "other"), &disco); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(disco.Sections) != 1 {
		t.Errorf("Expected album listed in the configured discography, got %+v", disco)
	}
}

func TestAlbumUpdated_ShortCircuit(t *testing.T) {
	r, rs, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, studioWithAlbum1())

	before := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio, Title: title("A")}
	after := before
	after.Songs = map[int]domain.Track{1: {ID: "s1"}}

	r.AlbumUpdated(context.Background(), "album1", before, after)

	if rs.writes != 0 {
		t.Errorf("Expected zero writes for a track-only change, got %d", rs.writes)
	}
}

func TestAlbumUpdated_TypeChangeMovesSection(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, domain.Section{Type: domain.AlbumTypeStudio, Albums: []domain.AlbumMetadata{{ID: "album1"}, {ID: "album2"}}})

	before := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio, Title: title("A")}
	after := before
	after.Type = domain.AlbumTypeOther

	r.AlbumUpdated(context.Background(), "album1", before, after)

	disco := getDisco(t, db)
	if len(disco.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %+v", disco.Sections)
	}
	if !equalIDs(sectionIDs(disco.Sections[0]), "album2") {
		t.Errorf("Expected album1 removed from studio, got %v", sectionIDs(disco.Sections[0]))
	}
	if disco.Sections[1].Type != domain.AlbumTypeOther || !equalIDs(sectionIDs(disco.Sections[1]), "album1") {
		t.Errorf("Expected album1 in other, got %+v", disco.Sections[1])
	}
}

func TestAlbumUpdated_TypeCleared(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, studioWithAlbum1())

	before := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio}
	after := before
	after.Type = ""

	r.AlbumUpdated(context.Background(), "album1", before, after)

	disco := getDisco(t, db)
	if len(disco.Sections) != 1 || len(disco.Sections[0].Albums) != 0 {
		t.Errorf("Expected album removed and no new section, got %+v", disco.Sections)
	}
}

func TestAlbumUpdated_DisabledShim(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, domain.Section{Type: domain.AlbumTypeStudio, Albums: []domain.AlbumMetadata{
		{ID: "legacy", Title: &domain.Title{English: "L"}},
		{ID: "modern", Title: &domain.Title{English: "M"}, Disabled: boolPtr(false)},
	}})
	ctx := context.Background()

	for _, id := range []string{"legacy", "modern"} {
		before := domain.Album{ID: id, Type: domain.AlbumTypeStudio, Title: domain.Title{English: "X"}}
		after := before
		after.Disabled = true
		after.ReleaseDate = "2001"
		r.AlbumUpdated(ctx, id, before, after)
	}

	albums := getDisco(t, db).Sections[0].Albums
	if albums[0].Disabled != nil {
		t.Errorf("Legacy summary gained disabled: %v", *albums[0].Disabled)
	}
	if albums[0].ReleaseDate != "2001" || albums[0].Title.English != "X" {
		t.Errorf("Legacy summary not refreshed: %+v", albums[0])
	}
	if albums[1].Disabled == nil || !*albums[1].Disabled {
		t.Errorf("Expected modern summary disabled, got %+v", albums[1].Disabled)
	}
}

func TestAlbumUpdated_LegacySummaryRoundTrips(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	ctx := context.Background()
	key := store.Doc(constants.DiscographiesCollection, constants.DefaultDiscographyID)
	raw := `{"id":"mayday","sections":[{"type":"studio","albums":[{"id":"old"},{"id":"album1"}]}]}`
	if err := db.SetRaw(ctx, key, []byte(raw)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	before := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio}
	after := before
	after.ReleaseDate = "2003"
	r.AlbumUpdated(ctx, "album1", before, after)

	data, _, err := db.GetRaw(ctx, key)
	if err != nil {
		t.Fatalf("GetRaw failed: %v", err)
	}
	var doc struct {
		Sections []struct {
			Albums []map[string]json.RawMessage `json:"albums"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if old := doc.Sections[0].Albums[0]; len(old) != 1 {
		t.Errorf("Expected untouched {id} summary, got %v", old)
	}
}

func TestAlbumDeleted(t *testing.T) {
	r, rs, db := setupTestReconciler(t, Options{})
	seedDisco(t, db, domain.Section{Type: domain.AlbumTypeStudio, Albums: []domain.AlbumMetadata{{ID: "album1"}, {ID: "album2"}}})
	ctx := context.Background()
	album1 := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio}

	r.AlbumDeleted(ctx, "album1", album1)

	if ids := sectionIDs(getDisco(t, db).Sections[0]); !equalIDs(ids, "album2") {
		t.Fatalf("Expected [album2], got %v", ids)
	}

	rs.reset()
	r.AlbumDeleted(ctx, "album1", album1)
	r.AlbumDeleted(ctx, "album3", domain.Album{ID: "album3", Type: domain.AlbumTypeEP})
	if rs.writes != 0 {
		t.Errorf("Expected no writes for absent summaries, got %d", rs.writes)
	}
}

func TestAlbumSections_Invariant(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	seedDisco(t, db)
	ctx := context.Background()

	a := domain.Album{ID: "a", Type: domain.AlbumTypeStudio, Title: title("A")}
	b := domain.Album{ID: "b", Type: domain.AlbumTypeEP, Title: title("B")}
	r.AlbumCreated(ctx, "a", a)
	r.AlbumCreated(ctx, "b", b)

	a2 := a
	a2.Type = domain.AlbumTypeCompilation
	r.AlbumUpdated(ctx, "a", a, a2)
	a3 := a2
	a3.Type = domain.AlbumTypeStudio
	a3.Title = title("A again")
	r.AlbumUpdated(ctx, "a", a2, a3)
	r.AlbumDeleted(ctx, "b", b)

	current := map[string]domain.AlbumType{"a": a3.Type}
	seen := map[string]int{}
	for _, s := range getDisco(t, db).Sections {
		for _, m := range s.Albums {
			seen[m.ID]++
			if want, ok := current[m.ID]; !ok || want != s.Type {
				t.Errorf("Album %s listed under %s", m.ID, s.Type)
			}
		}
	}
	if seen["a"] != 1 || seen["b"] != 0 {
		t.Errorf("Unexpected listing counts: %v", seen)
	}
}

func TestAlbumHandlers_KeepUnknownFields(t *testing.T) {
	r, _, db := setupTestReconciler(t, Options{})
	ctx := context.Background()
	key := store.Doc(constants.DiscographiesCollection, constants.DefaultDiscographyID)
	raw := `{"id":"mayday","name":"Mayday","sections":[{"type":"studio","label":"Studio","note":"core",` +
		`"albums":[{"id":"album1","title":{"english":"A"},"releaseDate":"2001","disabled":false,"cover":"a.jpg"}]}]}`
	if err := db.SetRaw(ctx, key, []byte(raw)); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	read := func(path string) string {
		t.Helper()
		data, _, err := db.GetRaw(ctx, key)
		if err != nil {
			t.Fatalf("GetRaw failed: %v", err)
		}
		return gjson.GetBytes(data, path).String()
	}
	check := func(step string) {
		t.Helper()
		if got := read("name"); got != "Mayday" {
			t.Errorf("%s: expected top-level name kept, got %q", step, got)
		}
	}

	r.AlbumCreated(ctx, "album2", album2(domain.AlbumTypeStudio))
	check("create")
	if got := read("sections.0.note"); got != "core" {
		t.Errorf("create: expected section note kept, got %q", got)
	}
	if got := read("sections.0.albums.0.cover"); got != "a.jpg" {
		t.Errorf("create: expected album1 cover kept, got %q", got)
	}

	before := domain.Album{ID: "album1", Type: domain.AlbumTypeStudio, Title: domain.Title{English: "A"}, ReleaseDate: "2001"}
	after := before
	after.Title = domain.Title{English: "B"}
	r.AlbumUpdated(ctx, "album1", before, after)
	check("update")
	if got := read("sections.0.albums.0.title.english"); got != "B" {
		t.Errorf("update: expected refreshed title, got %q", got)
	}
	if got := read("sections.0.albums.0.cover"); got != "a.jpg" {
		t.Errorf("update: expected cover kept, got %q", got)
	}

	moved := after
	moved.Type = domain.AlbumTypeEP
	r.AlbumUpdated(ctx, "album1", after, moved)
	check("move")
	if got := read(`sections.#(type=="ep").albums.0.cover`); got != "a.jpg" {
		t.Errorf("move: expected cover to follow the album, got %q", got)
	}

	r.AlbumCreated(ctx, "album1", moved)
	if got := read(`sections.#(type=="ep").albums.0.cover`); got != "a.jpg" {
		t.Errorf("redelivered create: expected cover kept, got %q", got)
	}

	r.AlbumDeleted(ctx, "album2", album2(domain.AlbumTypeStudio))
	check("delete")
	if got := read(`sections.#(type=="studio").note`); got != "core" {
		t.Errorf("delete: expected section note kept, got %q", got)
	}
	if n := read(`sections.#(type=="studio").albums.#`); n != "0" {
		t.Errorf("delete: expected empty studio section, got %s albums", n)
	}
}
