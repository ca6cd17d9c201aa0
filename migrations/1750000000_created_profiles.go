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

		// allow the 6 character minimum enforced by the sign-up form
		if password, ok := users.Fields.GetByName("password").(*core.PasswordField); ok {
			password.Min = 6
		}
		if err := app.Save(users); err != nil {
			return err
		}

		collection := core.NewBaseCollection("profiles")
		collection.ListRule = types.Pointer("id = @request.auth.id")
		collection.ViewRule = types.Pointer("id = @request.auth.id")

		collection.Fields.Add(
			&core.EmailField{
				Name:     "email",
				Required: true,
			},
			&core.TextField{
				Name: "full_name",
				Max:  200,
			},
			&core.URLField{
				Name: "avatar_url",
			},
			&core.SelectField{
				Name:      "role",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"user", "admin"},
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
		collection.AddIndex("idx_profiles_email", true, "email", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("profiles")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
