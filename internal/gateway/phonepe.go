package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const payEndpoint = "/pg/v1/pay"

// Статусы платежа, которые шлюз присылает в callback.
const (
	CodePaymentSuccess = "PAYMENT_SUCCESS"
	CodePaymentError   = "PAYMENT_ERROR"
	CodePaymentPending = "PAYMENT_PENDING"
)

// ErrChecksumMismatch возвращается, когда подпись callback не сходится
// с пересчитанной.
var ErrChecksumMismatch = fmt.Errorf("gateway: checksum mismatch")

// Client — клиент платёжного шлюза PhonePe. Суммы в API шлюза передаются
// в пайсах (1/100 денежной единицы).
type Client struct {
	baseURL     string
	merchantID  string
	saltKey     string
	saltIndex   string
	redirectURL string
	callbackURL string
	httpClient  *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, merchantID, saltKey, saltIndex, redirectURL, callbackURL string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		merchantID:  merchantID,
		saltKey:     saltKey,
		saltIndex:   saltIndex,
		redirectURL: redirectURL,
		callbackURL: callbackURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PaymentRequest — параметры создания платежа.
type PaymentRequest struct {
	OrderID string
	UserID  string
	Amount  float64
}

// PaymentResponse — результат создания платежа: ссылка для оплаты.
type PaymentResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type payPayload struct {
	MerchantID            string         `json:"merchantId"`
	MerchantTransactionID string         `json:"merchantTransactionId"`
	MerchantUserID        string         `json:"merchantUserId"`
	Amount                int64          `json:"amount"`
	RedirectURL           string         `json:"redirectUrl"`
	RedirectMode          string         `json:"redirectMode"`
	CallbackURL           string         `json:"callbackUrl"`
	PaymentInstrument     map[string]any `json:"paymentInstrument"`
}

type payAPIResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// CreatePayment создаёт платёж в шлюзе и возвращает ссылку на страницу оплаты.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	payload := payPayload{
		MerchantID:            c.merchantID,
		MerchantTransactionID: req.OrderID,
		MerchantUserID:        req.UserID,
		Amount:                int64(req.Amount * 100),
		RedirectURL:           c.redirectURL,
		RedirectMode:          "POST",
		CallbackURL:           c.callbackURL,
		PaymentInstrument:     map[string]any{"type": "PAY_PAGE"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(body)
	checksum := c.sign(encoded + payEndpoint)

	reqBody, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+payEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", checksum)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway: create payment %w", err)
	}
	defer resp.Body.Close()

	var apiResp payAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("gateway: decode response %w", err)
	}
	if resp.StatusCode >= 400 || !apiResp.Success {
		return nil, fmt.Errorf("gateway: код ответа %d: %s %s", resp.StatusCode, apiResp.Code, apiResp.Message)
	}

	return &PaymentResponse{
		OrderID:     req.OrderID,
		RedirectURL: apiResp.Data.InstrumentResponse.RedirectInfo.URL,
	}, nil
}

// CallbackResult — проверенный и декодированный callback шлюза.
// Amount уже переведён из пайсов в денежные единицы.
type CallbackResult struct {
	Code          string  `json:"code"`
	OrderID       string  `json:"order_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Success       bool    `json:"success"`
}

type callbackPayload struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
	} `json:"data"`
}

// ProcessCallback проверяет подпись callback и декодирует полезную нагрузку.
// Подпись считается по телу в base64: sha256(body + saltKey) + "###" + saltIndex.
func (c *Client) ProcessCallback(encodedBody, receivedChecksum string) (*CallbackResult, error) {
	if !hmac.Equal([]byte(c.sign(encodedBody)), []byte(receivedChecksum)) {
		return nil, ErrChecksumMismatch
	}

	decoded, err := base64.StdEncoding.DecodeString(encodedBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: decode callback %w", err)
	}

	var payload callbackPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("gateway: unmarshal callback %w", err)
	}

	return &CallbackResult{
		Code:          payload.Code,
		OrderID:       payload.Data.MerchantTransactionID,
		TransactionID: payload.Data.TransactionID,
		Amount:        float64(payload.Data.Amount) / 100,
		Success:       payload.Code == CodePaymentSuccess,
	}, nil
}

func (c *Client) sign(data string) string {
	sum := sha256.Sum256([]byte(data + c.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.saltIndex
}
