package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/folio/app/repositories"
	"github.com/shashiranjanraj/folio/app/services"
	"github.com/shashiranjanraj/folio/pkg/app"
)

func init() {
	Register("admin", Admin)
}

// Admin creates the configured admin account unless one already exists.
func Admin(ctx context.Context, c *app.Context, db *mongo.Database) error {
	boot := services.NewAdminBootstrap(
		repositories.NewUserRepository(db),
		services.AdminSettings{
			Name:     c.Config.AdminName,
			Email:    c.Config.AdminEmail,
			Password: c.Config.AdminPassword,
		},
		c.Log,
	)
	_, err := boot.Ensure(ctx)
	return err
}
