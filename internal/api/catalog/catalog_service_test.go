package catalog

import (
	"context"
	"errors"
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

func (m *MockRepository) Query(ctx context.Context, filter types.ActivityFilter) ([]types.Activity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Activity), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*types.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Activity), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, a types.Activity) (*types.Activity, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Activity), args.Error(1)
}

func setupCatalogServiceTest() (*ServiceImpl, *MockRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockRepository)
	return NewServiceImpl(repo, validator.New(), logger), repo
}

func TestServiceImpl_List(t *testing.T) {
	ctx := context.Background()

	t.Run("negative price is a validation error", func(t *testing.T) {
		service, repo := setupCatalogServiceTest()
		_, err := service.List(ctx, types.ActivityFilter{MaxPrice: fptr(-1)})
		assert.True(t, types.IsValidation(err))
		repo.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("passes the filter through", func(t *testing.T) {
		service, repo := setupCatalogServiceTest()
		filter := types.ActivityFilter{Region: "Porto"}
		repo.On("Query", mock.Anything, filter).Return([]types.Activity{{Name: "Swim"}}, nil).Once()

		got, err := service.List(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		repo.AssertExpectations(t)
	})
}

func TestServiceImpl_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("missing name", func(t *testing.T) {
		service, repo := setupCatalogServiceTest()
		_, err := service.Create(ctx, types.Activity{Category: "physical"})
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "name")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inverted age range", func(t *testing.T) {
		service, _ := setupCatalogServiceTest()
		_, err := service.Create(ctx, types.Activity{Name: "Chess", Category: "cognitive", AgeMin: iptr(10), AgeMax: iptr(5)})
		assert.True(t, types.IsValidation(err))
	})

	t.Run("saves a valid activity", func(t *testing.T) {
		service, repo := setupCatalogServiceTest()
		a := types.Activity{Name: "Chess Club", Category: "cognitive"}
		saved := a
		saved.ID = uuid.New()
		repo.On("Save", mock.Anything, a).Return(&saved, nil).Once()

		got, err := service.Create(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		repo.AssertExpectations(t)
	})
}

func setupCatalogHandlerTest() (*chi.Mux, *MockRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockRepository)
	h := NewHandlerImpl(NewServiceImpl(repo, validator.New(), logger), logger)
	r := chi.NewRouter()
	r.Get("/programs", h.ListPrograms)
	r.Post("/programs", h.CreateProgram)
	r.Get("/programs/{programID}", h.GetProgram)
	return r, repo
}

func TestHandlerImpl(t *testing.T) {
	t.Run("list parses query filters", func(t *testing.T) {
		router, repo := setupCatalogHandlerTest()
		repo.On("Query", mock.Anything, types.ActivityFilter{MaxPrice: fptr(50), Age: iptr(6), Region: "Lisbon"}).
			Return([]types.Activity{}, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/programs?max_price=50&age=6&region=Lisbon", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("bad age is a 400", func(t *testing.T) {
		router, _ := setupCatalogHandlerTest()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/programs?age=six", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "age")
	})

	t.Run("get unknown program is a 404", func(t *testing.T) {
		router, repo := setupCatalogHandlerTest()
		id := uuid.New()
		repo.On("Get", mock.Anything, id).Return(nil, types.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/programs/"+id.String(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("create validates the body", func(t *testing.T) {
		router, _ := setupCatalogHandlerTest()
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"category":"physical"}`)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/programs", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name"`)
	})

	t.Run("repository failure is a 500", func(t *testing.T) {
		router, repo := setupCatalogHandlerTest()
		repo.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/programs", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
