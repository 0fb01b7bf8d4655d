package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// LocationClient defines the portal operation needed to list locations
type LocationClient interface {
	GetLocations(ctx context.Context) ([]model.Location, error)
}

// ListLocations returns locations sorted by city then name, optionally limited to one city
func ListLocations(ctx context.Context, client LocationClient, logger *zap.Logger, city string) ([]model.Location, error) {
	locations, err := client.GetLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	if city = strings.TrimSpace(city); city != "" {
		filtered := locations[:0]
		for _, l := range locations {
			if strings.EqualFold(l.City, city) {
				filtered = append(filtered, l)
			}
		}
		locations = filtered
	}

	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].City != locations[j].City {
			return locations[i].City < locations[j].City
		}
		return locations[i].Name < locations[j].Name
	})

	logger.Debug("Listed locations", zap.Int("count", len(locations)))
	return locations, nil
}
