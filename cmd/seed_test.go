package cmd

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/backend"
	"eventhub/models"
)

func setupTestApp(t *testing.T) core.App {
	t.Helper()

	app := core.NewBaseApp(core.BaseAppConfig{DataDir: t.TempDir()})
	require.NoError(t, app.Bootstrap())
	require.NoError(t, app.RunAllMigrations())
	t.Cleanup(func() {
		_ = app.ResetBootstrapState()
	})
	return app
}

func TestDemoEvents(t *testing.T) {
	titles := map[string]bool{}
	categories := map[string]bool{}

	for _, e := range demoEvents {
		assert.False(t, titles[e.Title], "duplicate title %q", e.Title)
		titles[e.Title] = true
		categories[e.Category] = true

		assert.Contains(t, models.Categories, e.Category)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, e.Date)
		assert.Regexp(t, `^\d{2}:\d{2}$`, e.Time)
		assert.False(t, e.Price.IsNegative())
		assert.Positive(t, e.AvailableTickets)
	}

	assert.Len(t, categories, len(models.Categories))
}

func TestNewSeedCommand(t *testing.T) {
	cmd := NewSeedCommand(nil)
	assert.Equal(t, "seed", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestSeedEvents_IsIdempotent(t *testing.T) {
	app := setupTestApp(t)

	created, err := seedEvents(app, demoEvents)
	require.NoError(t, err)
	assert.Equal(t, len(demoEvents), created)

	created, err = seedEvents(app, demoEvents)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	total, err := app.CountRecords(backend.EventsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoEvents)), total)

	record, err := app.FindFirstRecordByData(backend.EventsCollection, "title", demoEvents[1].Title)
	require.NoError(t, err)
	assert.Equal(t, demoEvents[1].Category, record.GetString("category"))
	assert.Equal(t, demoEvents[1].AvailableTickets, record.GetInt("available_tickets"))
}

func TestSeedCommand_RunsMigrationsAndSeeds(t *testing.T) {
	app := setupTestApp(t)

	cmd := NewSeedCommand(app)
	require.NoError(t, cmd.RunE(cmd, nil))

	total, err := app.CountRecords(backend.EventsCollection)
	require.NoError(t, err)
	assert.Equal(t, int64(len(demoEvents)), total)
}
