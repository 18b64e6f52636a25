package family

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-activity-suggestions/app/validator"
	"github.com/FACorreiaa/go-family-activity-suggestions/internal/types"
)

// MockRepository is a mock implementation of Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, f types.Family) (*types.Family, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Family), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, f types.Family) (*types.Family, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Family), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*types.Family, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Family), args.Error(1)
}

// MockInvalidator records cache invalidations.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateRecommendations(ctx context.Context, familyID uuid.UUID) {
	m.Called(ctx, familyID)
}

func setupFamilyServiceTest() (*ServiceImpl, *MockRepository, *MockInvalidator) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockRepository)
	inv := new(MockInvalidator)
	return NewServiceImpl(repo, inv, validator.New(), logger), repo, inv
}

func validRequest() types.UpsertFamilyRequest {
	age, budget := 5, 30.0
	return types.UpsertFamilyRequest{
		Name:    "Smith",
		Profile: types.RecommendationRequest{ChildAge: &age, WeeklyBudget: &budget},
	}
}

func TestServiceImpl_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("missing child age is rejected", func(t *testing.T) {
		service, repo, _ := setupFamilyServiceTest()
		req := validRequest()
		req.Profile.ChildAge = nil

		_, err := service.Create(ctx, req)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "profile.child_age")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("applies intake defaults", func(t *testing.T) {
		service, repo, _ := setupFamilyServiceTest()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(f types.Family) bool {
			return f.Profile.ParentingStyle == types.DefaultParentingStyle &&
				len(f.Profile.PrioritiesRanked) == len(types.DefaultPriorities)
		})).Return(&types.Family{ID: uuid.New()}, nil).Once()

		_, err := service.Create(ctx, validRequest())
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestServiceImpl_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates cached recommendations", func(t *testing.T) {
		service, repo, inv := setupFamilyServiceTest()
		id := uuid.New()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(f types.Family) bool { return f.ID == id })).
			Return(&types.Family{ID: id}, nil).Once()
		inv.On("InvalidateRecommendations", mock.Anything, id).Once()

		_, err := service.Update(ctx, id, validRequest())
		require.NoError(t, err)
		repo.AssertExpectations(t)
		inv.AssertExpectations(t)
	})

	t.Run("failed update keeps the cache", func(t *testing.T) {
		service, repo, inv := setupFamilyServiceTest()
		id := uuid.New()
		repo.On("Update", mock.Anything, mock.Anything).Return(nil, types.ErrNotFound).Once()

		_, err := service.Update(ctx, id, validRequest())
		assert.ErrorIs(t, err, types.ErrNotFound)
		inv.AssertNotCalled(t, "InvalidateRecommendations", mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_Profile(t *testing.T) {
	service, repo, _ := setupFamilyServiceTest()
	id := uuid.New()
	repo.On("Get", mock.Anything, id).
		Return(&types.Family{ID: id, Profile: types.FamilyProfile{ChildAge: 9}}, nil).Once()

	p, err := service.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, p.FamilyID)
	assert.Equal(t, types.DefaultParentingStyle, p.ParentingStyle)
	assert.Equal(t, types.DefaultPriorities, p.PrioritiesRanked)
}

func setupFamilyHandlerTest() (*chi.Mux, *MockRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockRepository)
	h := NewHandlerImpl(NewServiceImpl(repo, nil, validator.New(), logger), logger)
	r := chi.NewRouter()
	r.Post("/families", h.CreateFamily)
	r.Get("/families/{familyID}", h.GetFamily)
	r.Put("/families/{familyID}", h.UpdateFamily)
	return r, repo
}

func TestHandlerImpl(t *testing.T) {
	t.Run("missing budget is a 400", func(t *testing.T) {
		router, _ := setupFamilyHandlerTest()
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"name":"Smith","profile":{"child_age":5}}`)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/families", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "profile.weekly_budget")
	})

	t.Run("bad id is a 400", func(t *testing.T) {
		router, _ := setupFamilyHandlerTest()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/families/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown family is a 404", func(t *testing.T) {
		router, repo := setupFamilyHandlerTest()
		id := uuid.New()
		repo.On("Get", mock.Anything, id).Return(nil, types.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/families/"+id.String(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("create returns 201", func(t *testing.T) {
		router, repo := setupFamilyHandlerTest()
		repo.On("Create", mock.Anything, mock.Anything).Return(&types.Family{ID: uuid.New(), Name: "Smith"}, nil).Once()

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"name":"Smith","profile":{"child_age":5,"weekly_budget":30}}`)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/families", body))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
