package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/models"
	"github.com/ternarybob/arbor"
)

type mockAdStorage struct {
	mock.Mock
}

func (m *mockAdStorage) UpsertAd(ctx context.Context, ad *models.Ad) (bool, error) {
	args := m.Called(ctx, ad)
	return args.Bool(0), args.Error(1)
}

func (m *mockAdStorage) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	args := m.Called(ctx, id)
	ad, _ := args.Get(0).(*models.Ad)
	return ad, args.Error(1)
}

func (m *mockAdStorage) ListAds(ctx context.Context, opts interfaces.AdListOptions) ([]*models.Ad, error) {
	args := m.Called(ctx, opts)
	ads, _ := args.Get(0).([]*models.Ad)
	return ads, args.Error(1)
}

func (m *mockAdStorage) CountAds(ctx context.Context, businessID string) (int, error) {
	args := m.Called(ctx, businessID)
	return args.Int(0), args.Error(1)
}

func TestAdHandler_List(t *testing.T) {
	storage := &mockAdStorage{}
	storage.On("CountAds", mock.Anything, "b1").Return(12, nil)
	storage.On("ListAds", mock.Anything, interfaces.AdListOptions{BusinessID: "b1", Limit: 5, Offset: 5}).
		Return([]*models.Ad{{ID: "ad-6", BusinessID: "b1"}}, nil)

	handler := NewAdHandler(storage, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/ads?business_id=b1&page=1&pageSize=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(12), pagination["total_items"])
	assert.Equal(t, float64(3), pagination["total_pages"])
	ads := body["ads"].([]interface{})
	assert.Equal(t, "ad-6", ads[0].(map[string]interface{})["id"])
	storage.AssertExpectations(t)
}

func TestAdHandler_RequiresBusinessID(t *testing.T) {
	handler := NewAdHandler(&mockAdStorage{}, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/ads", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
