package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"billing/internal/domain"
	"billing/internal/gateway"
)

func testUser() *domain.User {
	return &domain.User{
		ID:        1,
		Email:     "u@example.com",
		FirstName: "Jan",
		LastName:  "Kowalski",
	}
}

func newClient(authURL, orderURL string) *gateway.Client {
	return gateway.NewClient(gateway.Config{
		AuthURL:        authURL,
		MerchantPosID:  "387263",
		MerchantKey:    "merchant-key",
		CreateOrderURL: orderURL,
		NotifyURL:      "https://billing.example.com/v1/notify",
		ContinueURL:    "https://billing.example.com/",
		Description:    "Account top-up",
		CurrencyCode:   "PLN",
	}, zap.NewNop())
}

func TestAuthorize_ExchangesClientCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		require.Equal(t, "387263", r.PostForm.Get("client_id"))
		require.Equal(t, "merchant-key", r.PostForm.Get("client_secret"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	}))
	defer server.Close()

	client := newClient(server.URL, "")
	token, err := client.Authorize(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
}

func TestAuthorize_FailsWithoutAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
	}))
	defer server.Close()

	client := newClient(server.URL, "")
	_, err := client.Authorize(context.Background())
	require.ErrorIs(t, err, gateway.ErrAuthFailed)
}

func TestAuthorize_FailsOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(server.URL, "")
	_, err := client.Authorize(context.Background())
	require.ErrorIs(t, err, gateway.ErrAuthFailed)
}

func TestCreateOrder_SendsMinorUnitsAndBuyer(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{
			"redirectUri": "https://pay/x",
			"orderId":     "ORD1",
		})
	}))
	defer server.Close()

	client := newClient("", server.URL)
	order, err := client.CreateOrder(context.Background(), "tok-123", testUser(), decimal.RequireFromString("25.00"), "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "ORD1", order.OrderID)
	require.Equal(t, "https://pay/x", order.RedirectURI)

	require.Equal(t, float64(2500), received["totalAmount"])
	require.Equal(t, "10.0.0.1", received["customerIp"])
	require.Equal(t, "387263", received["merchantPosId"])
	require.Equal(t, "PLN", received["currencyCode"])
	require.Equal(t, "https://billing.example.com/v1/notify", received["notifyUrl"])
	buyer := received["buyer"].(map[string]interface{})
	require.Equal(t, "u@example.com", buyer["email"])
	require.Equal(t, "Jan", buyer["firstName"])
}

func TestCreateOrder_TreatsRedirectAsSuccessWithoutFollowing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://pay/elsewhere")
		w.WriteHeader(http.StatusFound)
		json.NewEncoder(w).Encode(map[string]string{
			"redirectUri": "https://pay/x",
			"orderId":     "ORD1",
		})
	}))
	defer server.Close()

	client := newClient("", server.URL)
	order, err := client.CreateOrder(context.Background(), "tok", testUser(), decimal.RequireFromString("10.00"), "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "https://pay/x", order.RedirectURI)
}

func TestCreateOrder_FailsOnOtherStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newClient("", server.URL)
	_, err := client.CreateOrder(context.Background(), "tok", testUser(), decimal.RequireFromString("10.00"), "10.0.0.1")
	require.ErrorIs(t, err, gateway.ErrOrderRejected)
}
