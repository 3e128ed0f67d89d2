package portone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.iamport.kr"

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Client はPortOne REST APIの薄いクライアント。
// レスポンスは型付きでデコードして境界で絞る。信用するのはその後。
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// APIの共通枠。code != 0 はエラー。
type apiResponse struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiredAt   int64  `json:"expired_at"`
	Now         int64  `json:"now"`
}

// PaymentRecord は単一決済照会の結果。
type PaymentRecord struct {
	Status      string `json:"status"` // ready / paid / failed / cancelled
	MerchantUID string `json:"merchant_uid"`
	ImpUID      string `json:"imp_uid"`
	Amount      int64  `json:"amount"`
	PgProvider  string `json:"pg_provider"`
	PayMethod   string `json:"pay_method"`
	PgTid       string `json:"pg_tid"`
	PaidAt      int64  `json:"paid_at"`
	FailReason  string `json:"fail_reason"`
}

// GetToken はアクセストークンを取る。
func (c *Client) GetToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"imp_key":    c.cfg.APIKey,
		"imp_secret": c.cfg.APISecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/users/getToken", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("get token: empty access_token")
	}
	return tok.AccessToken, nil
}

// GetPayment はimp_uidで単一決済を照会する。
func (c *Client) GetPayment(ctx context.Context, token string, impUID string) (PaymentRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/payments/"+impUID, nil)
	if err != nil {
		return PaymentRecord{}, err
	}
	req.Header.Set("Authorization", token)

	var rec PaymentRecord
	if err := c.do(req, &rec); err != nil {
		return PaymentRecord{}, fmt.Errorf("get payment %s: %w", impUID, err)
	}
	if rec.ImpUID == "" || rec.MerchantUID == "" {
		return PaymentRecord{}, fmt.Errorf("get payment %s: missing ids in response", impUID)
	}
	return rec, nil
}

// LookupPayment はトークン取得→照会をまとめる。
func (c *Client) LookupPayment(ctx context.Context, impUID string) (PaymentRecord, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return PaymentRecord{}, err
	}
	return c.GetPayment(ctx, token, impUID)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	var api apiResponse
	if err := json.NewDecoder(res.Body).Decode(&api); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if api.Code != 0 {
		return fmt.Errorf("api error %d: %s", api.Code, api.Message)
	}
	if err := json.Unmarshal(api.Response, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
