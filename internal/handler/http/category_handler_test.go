package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/category"
)

func TestCategoryHandler_List(t *testing.T) {
	s := newTestServer(t)

	s.categories.On("List", mock.Anything).Return([]category.Category{
		{ID: uuid.Must(uuid.NewV4()), Name: "Smart Phones", Slug: "smart-phones", IsActive: true},
	}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []category.Category
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "smart-phones", resp[0].Slug)
}

func TestCategoryHandler_FeaturedIsNotASlug(t *testing.T) {
	s := newTestServer(t)

	s.categories.On("Featured", mock.Anything).Return([]category.Category{}, nil).Once()

	rr := s.do(t, http.MethodGet, "/api/categories/featured", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	s.categories.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}

func TestCategoryHandler_GetBySlug(t *testing.T) {
	s := newTestServer(t)

	s.categories.On("GetBySlug", mock.Anything, "laptops").
		Return(nil, apperr.NotFound("category %q not found", "laptops")).Once()

	rr := s.do(t, http.MethodGet, "/api/categories/Laptops", nil, nil)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, `category "laptops" not found`, decodeError(t, rr))
}

func TestCategoryHandler_Admin_Create(t *testing.T) {
	s := newTestServer(t)
	parent := uuid.Must(uuid.NewV4())

	s.categories.On("Create", mock.Anything, mock.MatchedBy(func(in category.Input) bool {
		return in.Name != nil && *in.Name == "Gaming Gear" &&
			in.ParentID != nil && *in.ParentID == parent &&
			in.Featured != nil && *in.Featured
	})).Return(&category.Category{ID: uuid.Must(uuid.NewV4()), Name: "Gaming Gear", Slug: "gaming-gear"}, nil).Once()

	rr := s.do(t, http.MethodPost, "/api/admin/categories",
		`{"name": "Gaming Gear", "parent_id": "`+parent.String()+`", "featured": true}`, administrator())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestCategoryHandler_Admin_CreateConflict(t *testing.T) {
	s := newTestServer(t)

	s.categories.On("Create", mock.Anything, mock.Anything).
		Return(nil, apperr.Conflict("category %q already exists", "Audio")).Once()

	rr := s.do(t, http.MethodPost, "/api/admin/categories", `{"name": "Audio"}`, administrator())

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCategoryHandler_Admin_InvalidParent(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/admin/categories", `{"name": "Audio", "parent_id": "nope"}`, administrator())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	s.categories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryHandler_Admin_Delete(t *testing.T) {
	s := newTestServer(t)
	id := uuid.Must(uuid.NewV4())

	s.categories.On("Delete", mock.Anything, id).
		Return(apperr.InvalidState("category still has 3 products")).Once()

	rr := s.do(t, http.MethodDelete, "/api/admin/categories/"+id.String(), nil, administrator())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "category still has 3 products", decodeError(t, rr))
}
