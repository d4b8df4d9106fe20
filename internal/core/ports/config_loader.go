package ports

import "go.trai.ch/mark/internal/core/domain"

// ConfigLoader defines the interface for loading the pipeline configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds mark.yaml at or above cwd and returns the validated pipeline.
	Load(cwd string) (*domain.Pipeline, error)

	// DiscoverRoot walks up from cwd to the directory containing mark.yaml.
	DiscoverRoot(cwd string) (string, error)
}
