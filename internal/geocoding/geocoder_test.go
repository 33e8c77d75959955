package geocoding

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "gb", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "12 Gloucester Rd, BS7 8AE, Bristol, United Kingdom", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(baseURL, cacheDir string) Options {
	return Options{
		BaseURL:      baseURL,
		CountryCodes: "gb",
		Country:      "United Kingdom",
		CacheDir:     cacheDir,
	}
}

func TestGeocodeAddress(t *testing.T) {
	var hits int32
	srv := newTestServer(t, `[{"lat":"51.4690","lon":"-2.5910"}]`, &hits)

	g := NewGeocoder(logrus.New(), testOptions(srv.URL, t.TempDir()))

	lat, lon, err := g.GeocodeAddress("12 Gloucester Rd", "BS7 8AE", "Bristol")
	require.NoError(t, err)
	assert.Equal(t, 51.4690, lat)
	assert.Equal(t, -2.5910, lon)

	// second lookup is served from the cache
	lat, lon, err = g.GeocodeAddress("12 Gloucester Rd", "BS7 8AE", "Bristol")
	require.NoError(t, err)
	assert.Equal(t, 51.4690, lat)
	assert.Equal(t, -2.5910, lon)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGeocodeAddress_CachePersists(t *testing.T) {
	var hits int32
	srv := newTestServer(t, `[{"lat":"51.4690","lon":"-2.5910"}]`, &hits)
	dir := t.TempDir()

	first := NewGeocoder(logrus.New(), testOptions(srv.URL, dir))
	_, _, err := first.GeocodeAddress("12 Gloucester Rd", "BS7 8AE", "Bristol")
	require.NoError(t, err)

	second := NewGeocoder(logrus.New(), testOptions(srv.URL, dir))
	lat, _, err := second.GeocodeAddress("12 Gloucester Rd", "BS7 8AE", "Bristol")
	require.NoError(t, err)
	assert.Equal(t, 51.4690, lat)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGeocodeAddress_NoResults(t *testing.T) {
	var hits int32
	srv := newTestServer(t, `[]`, &hits)

	g := NewGeocoder(logrus.New(), testOptions(srv.URL, ""))
	_, _, err := g.GeocodeAddress("12 Gloucester Rd", "BS7 8AE", "Bristol")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no results found")
}
