package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing/internal/domain"
)

var ErrAuthFailed = errors.New("gateway authorization failed")
var ErrOrderRejected = errors.New("gateway rejected order")

type Config struct {
	AuthURL        string
	MerchantPosID  string
	MerchantKey    string
	CreateOrderURL string
	NotifyURL      string
	ContinueURL    string
	Description    string
	CurrencyCode   string
}

// Client — клиент PayU: получает сервисный токен по client_credentials и
// создаёт заказы от имени мерчанта.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			// шлюз отвечает 302 с готовым redirectUri в теле; за редиректом не идём
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

type Order struct {
	OrderID     string
	RedirectURI string
}

type buyer struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Language  string `json:"language"`
}

type product struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

type orderRequest struct {
	NotifyURL     string    `json:"notifyUrl"`
	CustomerIP    string    `json:"customerIp"`
	MerchantPosID string    `json:"merchantPosId"`
	Description   string    `json:"description"`
	CurrencyCode  string    `json:"currencyCode"`
	TotalAmount   int64     `json:"totalAmount"`
	ContinueURL   string    `json:"continueUrl"`
	Buyer         buyer     `json:"buyer"`
	Products      []product `json:"products"`
}

// Authorize выполняет client_credentials-обмен и возвращает bearer-токен.
func (c *Client) Authorize(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.MerchantPosID)
	form.Set("client_secret", c.cfg.MerchantKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: response has no access_token", ErrAuthFailed)
	}
	return body.AccessToken, nil
}

// CreateOrder создаёт заказ на шлюзе. Успехом считаются статусы 200 и 302.
func (c *Client) CreateOrder(ctx context.Context, token string, user *domain.User, amount decimal.Decimal, clientIP string) (*Order, error) {
	payload := orderRequest{
		NotifyURL:     c.cfg.NotifyURL,
		CustomerIP:    clientIP,
		MerchantPosID: c.cfg.MerchantPosID,
		Description:   c.cfg.Description,
		CurrencyCode:  c.cfg.CurrencyCode,
		TotalAmount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		ContinueURL:   c.cfg.ContinueURL,
		Buyer: buyer{
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Language:  "pl",
		},
		Products: []product{
			{
				Name:      c.cfg.Description,
				UnitPrice: "1",
				Quantity:  amount.String(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CreateOrderURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		c.logger.Error("Шлюз отклонил создание заказа",
			zap.Int("status_code", resp.StatusCode),
			zap.Int64("user_id", user.ID),
		)
		return nil, fmt.Errorf("%w: status %d", ErrOrderRejected, resp.StatusCode)
	}

	var orderResp struct {
		RedirectURI string `json:"redirectUri"`
		OrderID     string `json:"orderId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrOrderRejected, err)
	}
	if orderResp.OrderID == "" || orderResp.RedirectURI == "" {
		return nil, fmt.Errorf("%w: response has no orderId or redirectUri", ErrOrderRejected)
	}

	c.logger.Info("Заказ создан на шлюзе",
		zap.String("order_id", orderResp.OrderID),
		zap.Int64("user_id", user.ID),
		zap.String("amount", amount.String()),
	)
	return &Order{OrderID: orderResp.OrderID, RedirectURI: orderResp.RedirectURI}, nil
}
