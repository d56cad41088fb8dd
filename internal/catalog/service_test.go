package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/models"
	"github.com/naco0406/simplicity/internal/timeline"
)

const validTimelineJSON = `{
	"id": "tl-1",
	"totalDuration": 20000,
	"srcUrl": "narration.mp3",
	"sections": [
		{
			"id": "intro", "title": "Welcome", "type": "intro",
			"duration": 5000, "startTime": 0, "endTime": 5000,
			"mainTitle": "Welcome"
		},
		{
			"id": "content", "title": "Main", "type": "content",
			"duration": 10000, "startTime": 5000, "endTime": 15000,
			"audioSegmentIndex": 0,
			"sentences": [
				{"id": "s1", "text": "First sentence.", "startTime": 0, "endTime": 4000},
				{"id": "s2", "text": "Second sentence.", "startTime": 4000, "endTime": 10000}
			]
		},
		{
			"id": "closing", "title": "Thanks", "type": "closing",
			"duration": 5000, "startTime": 15000, "endTime": 20000,
			"message": "Thank you"
		}
	]
}`

func setupTestService(t *testing.T) *Service {
	t.Helper()

	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	return NewService(db.NewPresentationRepository(database))
}

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestService_SeedImportsValidFiles(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeedFile(t, dir, "deck-one.json", `{
		"slug": "deck-one",
		"title": "Deck One",
		"speaker": "Jordan Lee",
		"timeline": `+validTimelineJSON+`
	}`)
	writeSeedFile(t, dir, "deck-two.json", `{
		"slug": "deck-two",
		"title": "Deck Two",
		"timeline": `+validTimelineJSON+`
	}`)

	imported, err := svc.Seed(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	slugs := []string{list[0].Slug, list[1].Slug}
	assert.ElementsMatch(t, []string{"deck-one", "deck-two"}, slugs)
}

func TestService_SeedSkipsBrokenFiles(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeedFile(t, dir, "good.json", `{"slug": "good", "title": "Good", "timeline": `+validTimelineJSON+`}`)
	writeSeedFile(t, dir, "malformed.json", `{not json`)
	writeSeedFile(t, dir, "no-slug.json", `{"title": "No Slug", "timeline": `+validTimelineJSON+`}`)
	writeSeedFile(t, dir, "no-timeline.json", `{"slug": "empty", "title": "Empty"}`)
	writeSeedFile(t, dir, "bad-timeline.json", `{"slug": "bad", "title": "Bad", "timeline": {"id": "tl-x"}}`)
	writeSeedFile(t, dir, "notes.txt", "not a seed file")

	imported, err := svc.Seed(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Slug)
}

func TestService_SeedMissingDirectory(t *testing.T) {
	svc := setupTestService(t)

	imported, err := svc.Seed(context.Background(), "/nonexistent/seed/dir")
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
}

func TestService_SeedReplacesExistingSlug(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeedFile(t, dir, "deck.json", `{"slug": "deck", "title": "First Title", "timeline": `+validTimelineJSON+`}`)
	_, err := svc.Seed(ctx, dir)
	require.NoError(t, err)

	writeSeedFile(t, dir, "deck.json", `{"slug": "deck", "title": "Second Title", "timeline": `+validTimelineJSON+`}`)
	_, err = svc.Seed(ctx, dir)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Second Title", list[0].Title)
}

func TestService_GetTimeline(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeSeedFile(t, dir, "deck.json", `{"slug": "deck", "title": "Deck", "timeline": `+validTimelineJSON+`}`)
	_, err := svc.Seed(ctx, dir)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	p, tl, err := svc.GetTimeline(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "deck", p.Slug)
	assert.Equal(t, "tl-1", tl.ID)
	assert.Equal(t, int64(20000), tl.TotalDuration)
	assert.Equal(t, 3, tl.SectionCount())
}

func TestService_GetTimelineNotFound(t *testing.T) {
	svc := setupTestService(t)

	_, _, err := svc.GetTimeline(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, db.ErrPresentationNotFound))
}

func TestService_GetTimelineInvalidPayload(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// Bypass seeding so a broken payload can reach the catalog
	broken := models.NewPresentation("broken", "Broken", []byte(`{"id": "tl-x", "sections": []}`))
	repo := svc.repo
	require.NoError(t, repo.Create(ctx, broken))

	_, _, err := svc.GetTimeline(ctx, broken.ID)
	require.Error(t, err)

	var vErr *timeline.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
