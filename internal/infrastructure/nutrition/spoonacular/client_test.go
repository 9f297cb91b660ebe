package spoonacular

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const appleInformation = `{
  "id": 9003,
  "name": "apple",
  "nutrition": {
    "nutrients": [
      {"name": "Fat", "amount": 0.2, "unit": "g"},
      {"name": "Calories", "amount": 52, "unit": "kcal"},
      {"name": "Carbohydrates", "amount": 14, "unit": "g"},
      {"name": "Protein", "amount": 0.3, "unit": "g"}
    ]
  }
}`

// fakeAPI serves the two Spoonacular endpoints and counts calls to each
type fakeAPI struct {
	searchStatus int
	searchBody   string
	infoStatus   int
	infoBody     string

	searchCalls atomic.Int32
	infoCalls   atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/food/ingredients/search":
		f.searchCalls.Add(1)
		w.WriteHeader(f.searchStatus)
		w.Write([]byte(f.searchBody))
	case "/food/ingredients/9003/information":
		f.infoCalls.Add(1)
		w.WriteHeader(f.infoStatus)
		w.Write([]byte(f.infoBody))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	return NewClient(config.NutritionConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t), WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
}

func TestLookup_Success(t *testing.T) {
	api := &fakeAPI{
		searchStatus: http.StatusOK,
		searchBody:   `{"results":[{"id":9003,"name":"apple"}],"totalResults":1}`,
		infoStatus:   http.StatusOK,
		infoBody:     appleInformation,
	}
	server := httptest.NewServer(api)
	defer server.Close()

	info, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "apple")

	require.NoError(t, err)
	assert.Equal(t, "apple", info.Name)
	assert.Equal(t, nutrition.Amount(52, "kcal"), info.Calories)
	assert.Equal(t, nutrition.Amount(0.3, "g"), info.Protein)
	assert.Equal(t, nutrition.Amount(14, "g"), info.Carbs)
	assert.Equal(t, nutrition.Amount(0.2, "g"), info.Fat)
	assert.EqualValues(t, 1, api.searchCalls.Load())
	assert.EqualValues(t, 1, api.infoCalls.Load())
}

func TestLookup_RequestParameters(t *testing.T) {
	var searchQuery, infoQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/food/ingredients/search":
			searchQuery = r.URL.Query()
			w.Write([]byte(`{"results":[{"id":9003}]}`))
		default:
			infoQuery = r.URL.Query()
			w.Write([]byte(appleInformation))
		}
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "green apple")
	require.NoError(t, err)

	assert.Equal(t, []string{"green apple"}, searchQuery["query"])
	assert.Equal(t, []string{"1"}, searchQuery["number"])
	assert.Equal(t, []string{"spoon"}, searchQuery["apiKey"])
	assert.Equal(t, []string{"100"}, infoQuery["amount"])
	assert.Equal(t, []string{"g"}, infoQuery["unit"])
	assert.Equal(t, []string{"spoon"}, infoQuery["apiKey"])
}

func TestLookup_MissingNutrientsAreUnavailable(t *testing.T) {
	api := &fakeAPI{
		searchStatus: http.StatusOK,
		searchBody:   `{"results":[{"id":9003}]}`,
		infoStatus:   http.StatusOK,
		infoBody:     `{"id":9003,"nutrition":{"nutrients":[{"name":"Sugar","amount":10,"unit":"g"},{"name":"Protein","amount":1,"unit":"g"}]}}`,
	}
	server := httptest.NewServer(api)
	defer server.Close()

	info, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "mystery fruit")

	require.NoError(t, err)
	assert.Equal(t, "mystery fruit", info.Name, "name falls back to the query")
	assert.False(t, info.Calories.Available, "calories are matched by name, not position")
	assert.Equal(t, nutrition.Unavailable, info.Carbs.String())
	assert.Equal(t, nutrition.Unavailable, info.Fat.String())
	assert.Equal(t, "1 g", info.Protein.String())
}

func TestLookup_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"EmptyResults", http.StatusOK, `{"results":[],"totalResults":0}`},
		{"MissingResults", http.StatusOK, `{}`},
		{"SearchRejected", http.StatusPaymentRequired, `{"status":"failure","message":"quota"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{searchStatus: tt.status, searchBody: tt.body}
			server := httptest.NewServer(api)
			defer server.Close()

			info, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "xyzzy")

			assert.Nil(t, info)
			assert.True(t, apperrors.Is(err, apperrors.CodeNotFound), "got %v", err)
			assert.EqualValues(t, 1, api.searchCalls.Load())
			assert.Zero(t, api.infoCalls.Load(), "information must not be requested")
		})
	}
}

func TestLookup_InformationFailure(t *testing.T) {
	api := &fakeAPI{
		searchStatus: http.StatusOK,
		searchBody:   `{"results":[{"id":9003}]}`,
		infoStatus:   http.StatusInternalServerError,
		infoBody:     `oops`,
	}
	server := httptest.NewServer(api)
	defer server.Close()

	_, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "apple")

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLookupFailed, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.UpstreamStatus)
}

func TestLookup_MalformedInformation(t *testing.T) {
	api := &fakeAPI{
		searchStatus: http.StatusOK,
		searchBody:   `{"results":[{"id":9003}]}`,
		infoStatus:   http.StatusOK,
		infoBody:     `{"nutrition":`,
	}
	server := httptest.NewServer(api)
	defer server.Close()

	_, err := newTestClient(t, server.URL, "spoon").Lookup(context.Background(), "apple")

	assert.True(t, apperrors.Is(err, apperrors.CodeMalformedResponse), "got %v", err)
}

func TestLookup_MissingKeyFailsBeforeNetwork(t *testing.T) {
	api := &fakeAPI{searchStatus: http.StatusOK}
	server := httptest.NewServer(api)
	defer server.Close()

	_, err := newTestClient(t, server.URL, "").Lookup(context.Background(), "apple")

	assert.True(t, apperrors.Is(err, apperrors.CodeConfig), "got %v", err)
	assert.Zero(t, api.searchCalls.Load())
}

func TestLookup_TransportErrorDoesNotLeakKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, "super-secret").Lookup(context.Background(), "apple")

	assert.True(t, apperrors.Is(err, apperrors.CodeTransport), "got %v", err)
	appErr, _ := apperrors.As(err)
	assert.NotContains(t, appErr.Cause.Error(), "super-secret")
}
