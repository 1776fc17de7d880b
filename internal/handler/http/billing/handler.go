package billing_http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing/internal/app/billing"
	"billing/internal/app/users"
	"billing/internal/auth"
	"billing/internal/domain"
	"billing/internal/gateway"
)

type BillingHandler struct {
	billingService billing.BillingService
	userService    users.UserService
	logger         *zap.Logger
}

func NewBillingHandler(b billing.BillingService, u users.UserService, l *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: b, userService: u, logger: l}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type CreatePaymentRequest struct {
	Amount json.Number `json:"amount"`
}

type CreatePaymentResponse struct {
	URI string `json:"uri"`
}

type NotifyRequest struct {
	Order *NotifyOrder `json:"order"`
}

type NotifyOrder struct {
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	TotalAmount *int64 `json:"totalAmount"`
}

type NotifyResponse struct {
	Message string `json:"message"`
}

type BalanceResponse struct {
	UserID  int64           `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *BillingHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Address)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		h.logger.Error("Не удалось зарегистрировать пользователя", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusCreated, RegisterResponse{ID: user.ID, Email: user.Email})
}

func (h *BillingHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("Не удалось выполнить вход", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}

func (h *BillingHandler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount == "" {
		http.Error(w, "Amount is required", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		http.Error(w, "Amount must be numeric", http.StatusBadRequest)
		return
	}

	uri, err := h.billingService.CreatePayment(r.Context(), userID, amount, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			http.Error(w, "Amount must be positive", http.StatusBadRequest)
		case errors.Is(err, domain.ErrUserNotFound):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, domain.ErrPaymentAlreadyExists):
			http.Error(w, "Payment already exists", http.StatusConflict)
		case errors.Is(err, gateway.ErrAuthFailed), errors.Is(err, gateway.ErrOrderRejected):
			h.logger.Error("Ошибка шлюза при создании платежа", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			h.logger.Error("Не удалось создать платёж", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, CreatePaymentResponse{URI: uri})
}

func (h *BillingHandler) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var req NotifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Order == nil || req.Order.OrderID == "" || req.Order.Status == "" || req.Order.TotalAmount == nil {
		http.Error(w, "Malformed notification payload", http.StatusBadRequest)
		return
	}

	notification := billing.GatewayNotification{
		OrderID:          req.Order.OrderID,
		Status:           req.Order.Status,
		TotalAmountMinor: *req.Order.TotalAmount,
	}
	if err := h.billingService.ProcessNotification(r.Context(), notification, body); err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound):
			// Существование заказа не раскрываем.
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, domain.ErrUnmappedStatus):
			http.Error(w, "Unknown gateway status", http.StatusBadRequest)
		default:
			h.logger.Error("Не удалось обработать уведомление", zap.String("order_id", notification.OrderID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, NotifyResponse{Message: "ok"})
}

func (h *BillingHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	balance, err := h.billingService.GetUserBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		h.logger.Error("Не удалось получить баланс", zap.Int64("user_id", userID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}

func (h *BillingHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Не удалось отправить JSON-ответ", zap.Error(err))
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
