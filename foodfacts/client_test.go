package foodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncErrors "github.com/i4ali/macrosnap/errors"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/737628064502.json", r.URL.Path)
		w.Write([]byte(`{
			"status": 1,
			"code": "737628064502",
			"product": {
				"product_name": "Rice Noodles",
				"nutriments": {
					"proteins_100g": 7.0,
					"carbohydrates_100g": 76.0,
					"fat_100g": 1.5,
					"energy-kcal_100g": 350
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	p, err := client.Lookup(context.Background(), "737628064502")
	require.NoError(t, err)

	assert.Equal(t, "Rice Noodles", p.Name)
	assert.Equal(t, 7.0, p.Protein)
	assert.Equal(t, 76.0, p.Carbs)
	assert.Equal(t, 1.5, p.Fat)
	assert.Equal(t, 350.0, p.Calories)
}

func TestLookupUnknownBarcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "code": "000"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Lookup(context.Background(), "000")
	require.Error(t, err)
	assert.True(t, syncErrors.IsNotFound(err))
}

func TestLookupEmptyBarcode(t *testing.T) {
	client := NewClient()
	_, err := client.Lookup(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, syncErrors.KindInvalid, syncErrors.KindOf(err))
}

func TestLookupServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Lookup(context.Background(), "123")
	require.Error(t, err)
	assert.True(t, syncErrors.IsRetryable(err))
}
