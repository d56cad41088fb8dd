//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/naco0406/simplicity/internal/api"
	"github.com/naco0406/simplicity/internal/catalog"
	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/media"
	"github.com/naco0406/simplicity/internal/playback"
	"github.com/naco0406/simplicity/internal/transport"
)

// setupTestDB creates an in-memory test database with migrations applied
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(":memory:")
	require.NoError(t, err, "Failed to create in-memory database")
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve the migrations directory relative to this file so the
	// tests work regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)
	rootDir := filepath.Dir(filepath.Dir(testDir))
	migrationsPath := "file://" + filepath.Join(rootDir, "migrations")

	require.NoError(t, db.RunMigrations(sqlDB, migrationsPath), "Failed to run migrations")

	return database
}

// setupStack wires the full request stack onto an in-memory database and
// a simulated medium
func setupStack(t *testing.T) (*gin.Engine, *catalog.Service, *playback.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := setupTestDB(t)
	catalogService := catalog.NewService(db.NewPresentationRepository(database))

	resolver, err := media.NewResolver("http://localhost:8080/media", media.S3Options{})
	require.NoError(t, err)

	clk := clockwork.NewRealClock()
	factory := func(_ string, durationMs int64) transport.Medium {
		return transport.NewSimMedium(clk, transport.SimOptions{
			DurationMs: durationMs,
			LoadDelay:  time.Millisecond,
		})
	}

	sessions := playback.NewManager(clk, factory, transport.Config{
		LoadTimeout:       2 * time.Second,
		MaxLoadAttempts:   2,
		BackoffStep:       10 * time.Millisecond,
		ReadyTimeout:      time.Second,
		ReadyPollInterval: 5 * time.Millisecond,
	}, playback.Config{
		AutoStartDelay:      150 * time.Millisecond,
		SettleDelay:         5 * time.Millisecond,
		SentenceSettleDelay: 2 * time.Millisecond,
		PrePlayDelay:        2 * time.Millisecond,
		RecoveryDelay:       50 * time.Millisecond,
		ReconcileTick:       5 * time.Millisecond,
		DriftThresholdMs:    20,
	})
	t.Cleanup(sessions.Shutdown)

	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	api.SetupHealthRoutes(apiGroup, database, sessions)
	api.SetupPresentationRoutes(apiGroup, catalogService)
	api.SetupPlayerRoutes(apiGroup, catalogService, resolver, sessions)

	return router, catalogService, sessions
}

// writeSeedDir lays out a catalog seed directory with the given files
func writeSeedDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
