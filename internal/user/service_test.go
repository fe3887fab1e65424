package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/notify"
	"github.com/vasiliy-maslov/storefront/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]user.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*user.User, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) ToggleActive(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) (*user.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Wishlist(ctx context.Context, userID uuid.UUID) ([]user.WishlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.WishlistItem), args.Error(1)
}

func (m *MockUserRepository) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *MockUserRepository) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	sender := &recordingSender{}
	userService := user.NewService(mockRepo, sender)
	expectedID := uuid.Must(uuid.NewV4())

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(expectedID, nil).
		Once()

	created, err := userService.Register(context.Background(), user.RegisterInput{
		Name:     "  Test User ",
		Email:    "Test@Example.com",
		Password: "somepassword",
	})

	require.NoError(t, err)
	require.Equal(t, expectedID, created.ID)
	assert.Equal(t, "Test User", created.Name)
	assert.Equal(t, "test@example.com", created.Email)
	assert.Equal(t, identity.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("somepassword")))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "test@example.com", sender.sent[0].To)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Register_WelcomeFailureIgnored(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, &recordingSender{err: errors.New("smtp down")})

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(uuid.Must(uuid.NewV4()), nil).Once()

	_, err := userService.Register(context.Background(), user.RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)

	mockRepo.On("Create", mock.Anything, mock.Anything).
		Return(uuid.Nil, apperr.Conflict("email already exists")).
		Once()

	_, err := userService.Register(context.Background(), user.RegisterInput{Name: "A", Email: "dup@example.com", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "user with this email already exists", err.Error())
}

func TestUserService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   user.RegisterInput
	}{
		{"empty name", user.RegisterInput{Name: " ", Email: "a@example.com", Password: "secret1"}},
		{"bad email", user.RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}},
		{"short password", user.RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := user.NewService(mockRepo, nil)

			_, err := userService.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, apperr.ErrInvalidArgument)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUserService_GetUserByID(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)

	id := uuid.Must(uuid.NewV4())
	want := &user.User{ID: id, Name: "Jane", Email: "jane@example.com", Role: identity.RoleUser, IsActive: true}
	mockRepo.On("GetByID", mock.Anything, id).Return(want, nil).Once()

	got, err := userService.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetUserByID mismatch (-want +got):\n%s", diff)
	}
}

func TestUserService_GetUserByID_Errors(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)

	missing := uuid.Must(uuid.NewV4())
	broken := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, missing).Return(nil, apperr.NotFound("user not found")).Once()
	mockRepo.On("GetByID", mock.Anything, broken).Return(nil, errors.New("db down")).Once()

	_, err := userService.GetUserByID(context.Background(), missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = userService.GetUserByID(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service: failed to get user by id")
}

func TestUserService_Lookup(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)

	id := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, id).Return(&user.User{ID: id, Name: "Jane", Email: "jane@example.com", Role: identity.RoleAdmin, IsActive: true}, nil).Once()

	contact, err := userService.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, identity.Contact{Name: "Jane", Email: "jane@example.com", Role: identity.RoleAdmin, IsActive: true}, contact)
}

func TestUserService_ListUsers_NormalizesPaging(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)

	mockRepo.On("List", mock.Anything, user.ListFilter{Search: "jane", Page: 1, Limit: 10}).
		Return([]user.User{{Name: "Jane"}}, 11, nil).
		Once()

	page, err := userService.ListUsers(context.Background(), user.ListFilter{Search: "jane"})
	require.NoError(t, err)
	assert.Equal(t, 11, page.TotalUsers)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)

	_, err = userService.ListUsers(context.Background(), user.ListFilter{Role: "root"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestUserService_UpdateRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	id := uuid.Must(uuid.NewV4())

	_, err := userService.UpdateRole(context.Background(), id, "superuser")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	mockRepo.On("UpdateRole", mock.Anything, id, identity.RoleAdmin).
		Return(&user.User{ID: id, Role: identity.RoleAdmin}, nil).
		Once()
	updated, err := userService.UpdateRole(context.Background(), id, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, updated.Role)

	missing := uuid.Must(uuid.NewV4())
	mockRepo.On("UpdateRole", mock.Anything, missing, identity.RoleUser).
		Return(nil, apperr.NotFound("user not found")).
		Once()
	_, err = userService.UpdateRole(context.Background(), missing, identity.RoleUser)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserService_ToggleStatus(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	id := uuid.Must(uuid.NewV4())

	mockRepo.On("ToggleActive", mock.Anything, id).Return(&user.User{ID: id, IsActive: false}, nil).Once()

	toggled, err := userService.ToggleStatus(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	mockRepo.AssertExpectations(t)
}

func strPtr(s string) *string {
	return &s
}

func TestUserService_UpdateProfile_NormalizesFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	id := uuid.Must(uuid.NewV4())
	addr := &user.Address{Street: "1 Main St", City: "Springfield"}

	want := user.ProfileUpdate{
		Name:    strPtr("Jane Roe"),
		Email:   strPtr("jane.roe@example.com"),
		Phone:   strPtr("+1 555 0100"),
		Address: addr,
	}
	updated := &user.User{ID: id, Name: "Jane Roe", Email: "jane.roe@example.com", Phone: "+1 555 0100", Address: *addr}
	mockRepo.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(got user.ProfileUpdate) bool {
		return cmp.Equal(want, got)
	})).Return(updated, nil).Once()

	got, err := userService.UpdateProfile(context.Background(), id, user.ProfileUpdate{
		Name:    strPtr("  Jane Roe "),
		Email:   strPtr(" Jane.Roe@Example.com"),
		Phone:   strPtr(" +1 555 0100 "),
		Address: addr,
	})
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateProfile_Errors(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		upd     user.ProfileUpdate
		repoErr error
		wantErr error
	}{
		{name: "blank name", upd: user.ProfileUpdate{Name: strPtr(" ")}, wantErr: apperr.ErrInvalidArgument},
		{name: "bad email", upd: user.ProfileUpdate{Email: strPtr("nope")}, wantErr: apperr.ErrInvalidArgument},
		{name: "long phone", upd: user.ProfileUpdate{Phone: strPtr("0123456789012345678901234567890123")}, wantErr: apperr.ErrInvalidArgument},
		{name: "email taken", upd: user.ProfileUpdate{Email: strPtr("taken@example.com")}, repoErr: apperr.Conflict("user already exists"), wantErr: apperr.ErrConflict},
		{name: "missing user", upd: user.ProfileUpdate{Phone: strPtr("1")}, repoErr: apperr.NotFound("user not found"), wantErr: apperr.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := user.NewService(mockRepo, nil)
			if tc.repoErr != nil {
				mockRepo.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(nil, tc.repoErr).Once()
			}

			_, err := userService.UpdateProfile(context.Background(), id, tc.upd)
			assert.ErrorIs(t, err, tc.wantErr)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_AddToWishlist(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())
	items := []user.WishlistItem{{ProductID: productID, Name: "Phone"}}

	mockRepo.On("AddToWishlist", mock.Anything, userID, productID).Return(nil).Once()
	mockRepo.On("Wishlist", mock.Anything, userID).Return(items, nil).Once()

	got, err := userService.AddToWishlist(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	mockRepo.AssertExpectations(t)
}

func TestUserService_AddToWishlist_Duplicate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mockRepo.On("AddToWishlist", mock.Anything, userID, productID).Return(apperr.Conflict("product already in wishlist")).Once()

	_, err := userService.AddToWishlist(context.Background(), userID, productID)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.EqualError(t, err, "Product already in wishlist")
	mockRepo.AssertNotCalled(t, "Wishlist", mock.Anything, mock.Anything)
}

func TestUserService_RemoveFromWishlist(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, nil)
	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mockRepo.On("RemoveFromWishlist", mock.Anything, userID, productID).Return(nil).Once()
	mockRepo.On("Wishlist", mock.Anything, userID).Return([]user.WishlistItem{}, nil).Once()

	got, err := userService.RemoveFromWishlist(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Empty(t, got)

	mockRepo.On("RemoveFromWishlist", mock.Anything, userID, productID).Return(errors.New("timeout")).Once()
	_, err = userService.RemoveFromWishlist(context.Background(), userID, productID)
	assert.ErrorContains(t, err, "service: failed to remove from wishlist")
}
