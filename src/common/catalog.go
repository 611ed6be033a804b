package common

import (
	"context"
	"strings"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"
)

// CatalogEntry is one cell of the catalog grid. Records without a display
// name render as non-tappable spacers so the grid keeps its alignment.
type CatalogEntry struct {
	Spectacle *models.Spectacle `json:"spectacle,omitempty"`
	Spacer    bool              `json:"spacer,omitempty"`
}

// ListSpectacles loads the catalog ordered by date, optionally narrowed by a
// search term. The term narrows in memory after one fetch, so LIKE
// metacharacters in user input stay literal.
func ListSpectacles(ctx context.Context, filters types.SpectaclesQueryFilters) ([]models.Spectacle, error) {
	var spectacles []models.Spectacle
	db := db.GetDb()
	if err := db.WithContext(ctx).Order("date asc").Find(&spectacles).Error; err != nil {
		return nil, err
	}
	return FilterSpectacles(spectacles, filters.Search), nil
}

// FilterSpectacles narrows an in-memory list by case-insensitive substring
// match on the display name. An empty term returns the list unchanged.
func FilterSpectacles(spectacles []models.Spectacle, search string) []models.Spectacle {
	if search == "" {
		return spectacles
	}
	term := strings.ToLower(search)
	filtered := make([]models.Spectacle, 0, len(spectacles))
	for _, s := range spectacles {
		if strings.Contains(strings.ToLower(s.Name), term) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// PartitionCatalog splits the list into the concert and spectacle rows,
// preserving order. Nameless records become spacer entries instead of being
// dropped.
func PartitionCatalog(spectacles []models.Spectacle) (concerts []CatalogEntry, others []CatalogEntry) {
	concerts = make([]CatalogEntry, 0, len(spectacles))
	others = make([]CatalogEntry, 0, len(spectacles))
	for i := range spectacles {
		s := &spectacles[i]
		entry := CatalogEntry{Spectacle: s}
		if s.Name == "" {
			entry = CatalogEntry{Spacer: true}
		}
		if s.Category == types.CATEGORY_CONCERT {
			concerts = append(concerts, entry)
		} else {
			others = append(others, entry)
		}
	}
	return concerts, others
}
