package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/scoring"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ResolveIdentifier(query string) (string, error) {
	args := m.Called(query)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) FetchSnapshot(id string) (*domain.MarketSnapshot, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarketSnapshot), args.Error(1)
}

func (m *mockGateway) FetchTopByMarketCap(n int) ([]domain.MarketSnapshot, error) {
	args := m.Called(n)
	return nil, args.Error(1)
}

func (m *mockGateway) FetchPriceHistory(id string, days int) ([]domain.PricePoint, error) {
	args := m.Called(id, days)
	return nil, args.Error(1)
}

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Predict(features domain.FeatureVector) (float64, error) {
	args := m.Called(features)
	return args.Get(0).(float64), args.Error(1)
}

func newTestRouter(gateway *mockGateway, oracle *mockOracle) chi.Router {
	svc := scoring.NewService(gateway, oracle, zerolog.Nop())
	h := NewHandler(svc, nil, zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postPredict(t *testing.T, r chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/predict-crypto", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlePredict(t *testing.T) {
	snapshot := &domain.MarketSnapshot{ID: "bitcoin", Symbol: "btc", Image: "https://img/btc.png"}

	gateway := new(mockGateway)
	gateway.On("ResolveIdentifier", "Bitcoin").Return("bitcoin", nil)
	gateway.On("FetchSnapshot", "bitcoin").Return(snapshot, nil)

	oracle := new(mockOracle)
	oracle.On("Predict", snapshot.Features()).Return(7.456, nil)

	rec := postPredict(t, newTestRouter(gateway, oracle), `{"symbol":"Bitcoin"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bitcoin", resp["symbol"])
	assert.Equal(t, "bitcoin", resp["crypto_id"])
	assert.Equal(t, 7.46, resp["prediction"])
	assert.Equal(t, "MODERADA_OPORTUNIDAD", resp["category"])
	assert.Equal(t, "https://img/btc.png", resp["image"])
}

func TestHandlePredictEmptySymbol(t *testing.T) {
	rec := postPredict(t, newTestRouter(new(mockGateway), new(mockOracle)), `{"symbol":"  "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Debes enviar")
}

func TestHandlePredictEmptyBody(t *testing.T) {
	rec := postPredict(t, newTestRouter(new(mockGateway), new(mockOracle)), ``)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePredictNotFound(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("ResolveIdentifier", "zzzz").Return("", domain.ErrNotFound)

	rec := postPredict(t, newTestRouter(gateway, new(mockOracle)), `{"symbol":"zzzz"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no encontrada")
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(symbol, coinID string, prediction float64, category domain.Category) error {
	args := m.Called(symbol, coinID, prediction, category)
	return args.Error(0)
}

func TestHandlePredictRecordsHistory(t *testing.T) {
	snapshot := &domain.MarketSnapshot{ID: "bitcoin", Symbol: "btc"}

	gateway := new(mockGateway)
	gateway.On("ResolveIdentifier", "btc").Return("bitcoin", nil)
	gateway.On("FetchSnapshot", "bitcoin").Return(snapshot, nil)

	oracle := new(mockOracle)
	oracle.On("Predict", snapshot.Features()).Return(3.0, nil)

	recorder := new(mockRecorder)
	recorder.On("Record", "btc", "bitcoin", 3.0, domain.CategoryBajaOportunidad).Return(nil)

	svc := scoring.NewService(gateway, oracle, zerolog.Nop())
	h := NewHandler(svc, recorder, zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := postPredict(t, r, `{"symbol":"btc"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	recorder.AssertExpectations(t)
}

func TestHandlePredictUpstreamError(t *testing.T) {
	gateway := new(mockGateway)
	gateway.On("ResolveIdentifier", "btc").Return("", errors.New("API returned status 500"))

	rec := postPredict(t, newTestRouter(gateway, new(mockOracle)), `{"symbol":"btc"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
