package fleet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fleetpay/topup-gateway/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:  srv.URL,
		ParkID:   "park-1",
		ClientID: "client-1",
		APIKey:   "key-1",
	}, logger.New("test"))
}

func TestTopupRequestShape(t *testing.T) {
	var captured struct {
		headers http.Header
		body    map[string]any
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured.headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &captured.body))
		w.WriteHeader(http.StatusOK)
	})

	err := c.Topup(context.Background(), "drv-a", decimal.RequireFromString("95.50"), "txn-1")
	require.NoError(t, err)

	require.Equal(t, "client-1", captured.headers.Get("X-Client-ID"))
	require.Equal(t, "key-1", captured.headers.Get("X-API-Key"))
	require.Equal(t, "txn-1", captured.headers.Get("X-Idempotency-Token"))

	require.Equal(t, "park-1", captured.body["park_id"])
	require.Equal(t, "drv-a", captured.body["contractor_profile_id"])
	require.Equal(t, "95.50", captured.body["amount"])
	require.Equal(t, "UZS", captured.body["currency_code"])

	data := captured.body["data"].(map[string]any)
	require.Equal(t, "topup", data["kind"])
	require.Equal(t, "partner_service_manual_4", data["category_id"])
	require.Equal(t, "PAYNET", data["description"])
	// the commission never shows upstream
	require.Equal(t, "0.00", data["fee_amount"])
}

func TestTopupNon2xxIsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Topup(context.Background(), "drv-a", decimal.RequireFromString("1.00"), "txn-1")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadGateway, ue.StatusCode)
}

func TestListDrivers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.EqualValues(t, 1000, req["limit"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"driver_profiles": []map[string]any{
				{"driver_profile": map[string]any{
					"id": "drv-a", "first_name": "John", "last_name": "Doe",
					"phones": []string{"+998901234567"},
				}},
				{"driver_profile": map[string]any{
					"id": "drv-b", "first_name": "Aziz", "last_name": "Karimov",
				}},
			},
		})
	})

	drivers, err := c.ListDrivers(context.Background(), []string{"working"}, 1000)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	require.Equal(t, "drv-a", drivers[0].ID)
	require.Equal(t, "+998901234567", drivers[0].Phone)
	require.Empty(t, drivers[1].Phone)
}
