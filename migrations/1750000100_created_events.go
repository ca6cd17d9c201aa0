package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("events")
		collection.ListRule = types.Pointer("")
		collection.ViewRule = types.Pointer("")

		collection.Fields.Add(
			&core.TextField{
				Name:     "title",
				Required: true,
				Max:      200,
			},
			&core.TextField{
				Name: "description",
			},
			&core.TextField{
				Name:     "date",
				Required: true,
				Pattern:  `^\d{4}-\d{2}-\d{2}$`,
			},
			&core.TextField{
				Name:    "time",
				Pattern: `^\d{2}:\d{2}(:\d{2})?$`,
			},
			&core.TextField{
				Name: "venue",
			},
			&core.NumberField{
				Name: "price",
				Min:  types.Pointer(0.0),
			},
			&core.SelectField{
				Name:      "category",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"conference", "workshop", "concert", "exhibition"},
			},
			&core.URLField{
				Name: "image_url",
			},
			&core.NumberField{
				Name:    "available_tickets",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
			},
			&core.RelationField{
				Name:         "user",
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)
		collection.AddIndex("idx_events_category", false, "category", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
