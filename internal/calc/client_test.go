package calc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCalculateRoundTrip(t *testing.T) {
	t.Parallel()

	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calculate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_oils_base":1000,"lye_adjusted_base":136.5,"water_base":330,"lye_concentration_pct":29.3,"water_to_lye_ratio":2.4,"quality_report":{"hardness":42}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: " secret "})
	require.NoError(t, err)

	sap := 0.134
	resp, err := client.Calculate(context.Background(), Request{
		Oils:         []Oil{{Name: "Olive", WeightBase: 1000, SAPValue: &sap}},
		LyeSelection: LyeSelection{Type: "NaOH", Superfat: 5, Purity: 100},
		WaterMethod:  WaterPercent,
		WaterParams:  map[string]float64{"percent": 33},
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, resp.TotalOilsBase)
	assert.Equal(t, 136.5, resp.LyeAdjustedBase)
	assert.Equal(t, float64(42), resp.QualityReport["hardness"])
	require.Len(t, got.Oils, 1)
	require.NotNil(t, got.Oils[0].SAPValue)
	assert.Equal(t, 0.134, *got.Oils[0].SAPValue)
	assert.Equal(t, WaterPercent, got.WaterMethod)
}

func TestCalculateReportsNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Calculate(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCalculateTimesOut(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Calculate(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || time.Since(start) < time.Second)
}

func TestCalculateRejectsGarbage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Calculate(context.Background(), Request{})
	assert.ErrorContains(t, err, "decode response")
}

func TestSequencer(t *testing.T) {
	t.Parallel()

	s := NewSequencer(4)
	assert.False(t, s.IsCurrent(0))
	assert.True(t, s.IsCurrent(4))

	first := s.Next()
	second := s.Next()
	assert.Equal(t, uint64(5), first)
	assert.False(t, s.IsCurrent(first))
	assert.True(t, s.IsCurrent(second))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(56), s.Latest())
}
