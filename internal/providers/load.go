package providers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// Load reads a provider catalog file (YAML, JSON or TOML) and merges it over
// the built-in defaults. An empty path returns the defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read provider catalog: %w", err)
	}

	var file Catalog
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("unmarshal provider catalog: %w", err)
	}
	for i := range file.Providers {
		file.Providers[i].ID = models.NormalizeProvider(string(file.Providers[i].ID))
		file.Providers[i].Format = FeedFormat(strings.ToLower(string(file.Providers[i].Format)))
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validate provider catalog: %w", err)
	}

	return Default().Merge(&file), nil
}
