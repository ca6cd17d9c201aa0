package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"eventhub/internal/backend"
	"eventhub/models"
)

var demoEvents = []models.Event{
	{
		Title:            "GopherCon Community Day",
		Description:      "A full day of talks on concurrency, tooling and running Go in production.",
		Date:             "2025-09-18",
		Time:             "09:00",
		Venue:            "Moscone Center, San Francisco",
		Price:            decimal.RequireFromString("149.00"),
		Category:         "conference",
		ImageURL:         "https://images.unsplash.com/photo-1540575467063-178a50c2df87",
		AvailableTickets: 250,
	},
	{
		Title:            "Hands-on Kubernetes Workshop",
		Description:      "Deploy, scale and debug services on a real cluster in small groups.",
		Date:             "2025-10-04",
		Time:             "13:30",
		Venue:            "Tech Hub, Berlin",
		Price:            decimal.RequireFromString("79.50"),
		Category:         "workshop",
		ImageURL:         "https://images.unsplash.com/photo-1522071820081-009f0129c71c",
		AvailableTickets: 30,
	},
	{
		Title:            "Jazz by the River",
		Description:      "An evening of live jazz with local bands and food trucks.",
		Date:             "2025-08-22",
		Time:             "19:00",
		Venue:            "Riverside Park, Austin",
		Price:            decimal.RequireFromString("35.00"),
		Category:         "concert",
		ImageURL:         "https://images.unsplash.com/photo-1511192336575-5a79af67a629",
		AvailableTickets: 500,
	},
	{
		Title:            "Modern Photography Exhibition",
		Description:      "Works from twenty emerging photographers exploring city life.",
		Date:             "2025-11-12",
		Time:             "10:00",
		Venue:            "City Gallery, London",
		Price:            decimal.RequireFromString("12.00"),
		Category:         "exhibition",
		AvailableTickets: 1000,
	},
}

// NewSeedCommand inserts the demo events that are not present yet.
func NewSeedCommand(app core.App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo events into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RunAllMigrations(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			created, err := seedEvents(app, demoEvents)
			if err != nil {
				return err
			}

			log.Printf("Seeded %d events (%d already present)", created, len(demoEvents)-created)
			return nil
		},
	}
}

func seedEvents(app core.App, events []models.Event) (int, error) {
	collection, err := app.FindCollectionByNameOrId(backend.EventsCollection)
	if err != nil {
		return 0, fmt.Errorf("find events collection: %w", err)
	}

	created := 0
	for _, event := range events {
		_, err := app.FindFirstRecordByData(collection, "title", event.Title)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return created, fmt.Errorf("find event %q: %w", event.Title, err)
		}

		record := core.NewRecord(collection)
		record.Set("title", event.Title)
		record.Set("description", event.Description)
		record.Set("date", event.Date)
		record.Set("time", event.Time)
		record.Set("venue", event.Venue)
		record.Set("price", event.Price.InexactFloat64())
		record.Set("category", event.Category)
		record.Set("image_url", event.ImageURL)
		record.Set("available_tickets", event.AvailableTickets)

		if err := app.Save(record); err != nil {
			return created, fmt.Errorf("insert event %q: %w", event.Title, err)
		}
		created++
	}
	return created, nil
}
