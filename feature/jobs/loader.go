package jobs

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the jobs feature. Background runs are bound to ctx.
func NewFeature(ctx context.Context, service *Service) *Feature {
	return &Feature{service: service, handler: NewHandler(ctx, service)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "jobs"
}

// IsEnabled reports whether a database is available.
func (f *Feature) IsEnabled() bool {
	return f.service != nil && f.service.db != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
