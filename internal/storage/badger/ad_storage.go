package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// AdStorage implements the AdStorage interface for Badger
type AdStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAdStorage creates a new AdStorage instance
func NewAdStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AdStorage {
	return &AdStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertAd inserts or replaces an ad, keeping the original CreatedAt for duplicates
func (s *AdStorage) UpsertAd(ctx context.Context, ad *models.Ad) (bool, error) {
	if ad.ID == "" {
		return false, fmt.Errorf("ad ID is required")
	}

	now := time.Now()
	ad.UpdatedAt = now

	var existing models.Ad
	err := s.db.Store().Get(ad.ID, &existing)
	isNew := errors.Is(err, badgerhold.ErrNotFound)
	switch {
	case err == nil:
		ad.CreatedAt = existing.CreatedAt
	case isNew:
		ad.CreatedAt = now
	default:
		return false, fmt.Errorf("failed to check ad existence: %w", err)
	}

	if err := s.db.Store().Upsert(ad.ID, ad); err != nil {
		return false, fmt.Errorf("failed to upsert ad: %w", err)
	}

	return isNew, nil
}

// GetAd retrieves an ad by its dedup key
func (s *AdStorage) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	var ad models.Ad
	err := s.db.Store().Get(id, &ad)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("ad not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return &ad, nil
}

// ListAds returns a business's ads, newest first
func (s *AdStorage) ListAds(ctx context.Context, opts interfaces.AdListOptions) ([]*models.Ad, error) {
	query := badgerhold.Where("BusinessID").Eq(opts.BusinessID).Index("BusinessID").SortBy("CreatedAt").Reverse()
	if opts.Offset > 0 {
		query = query.Skip(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var ads []*models.Ad
	if err := s.db.Store().Find(&ads, query); err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, nil
}

// CountAds counts a business's ads
func (s *AdStorage) CountAds(ctx context.Context, businessID string) (int, error) {
	count, err := s.db.Store().Count(&models.Ad{}, badgerhold.Where("BusinessID").Eq(businessID).Index("BusinessID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count ads: %w", err)
	}
	return int(count), nil
}
