package interfaces

import (
	"context"

	"github.com/ternarybob/adimport/internal/models"
)

// AdListOptions pages ads for one business
type AdListOptions struct {
	BusinessID string
	Limit      int
	Offset     int
}

// AdStorage persists ad records per business
type AdStorage interface {
	// UpsertAd stores the ad under its dedup key. Returns true when the key was new.
	UpsertAd(ctx context.Context, ad *models.Ad) (bool, error)
	GetAd(ctx context.Context, id string) (*models.Ad, error)
	ListAds(ctx context.Context, opts AdListOptions) ([]*models.Ad, error)
	CountAds(ctx context.Context, businessID string) (int, error)
}
