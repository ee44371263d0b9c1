package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Status is the gateway's verdict for a transaction reference.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

var ErrGatewayRequest = errors.New("payment gateway request failed")

type InitializeResult struct {
	CheckoutURL string
	AccessCode  string
	Reference   string
}

type VerifyResult struct {
	Status      Status
	AmountMinor int64
}

// Client talks to the Paystack transaction API. Amounts cross this
// boundary as integer minor currency units; the reference is the
// repayment identifier.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type initializePayload struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type initializeResponse struct {
	Status bool `json:"status"`
	Data   struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, email string, amountMinor int64, reference string) (InitializeResult, error) {
	payload, err := json.Marshal(initializePayload{
		Email:     email,
		Amount:    amountMinor,
		Reference: reference,
	})
	if err != nil {
		return InitializeResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return InitializeResult{}, err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return InitializeResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return InitializeResult{}, fmt.Errorf("%w: initialize returned %d", ErrGatewayRequest, resp.StatusCode)
	}
	var body initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return InitializeResult{}, err
	}
	if !body.Status {
		return InitializeResult{}, fmt.Errorf("%w: initialize rejected", ErrGatewayRequest)
	}
	return InitializeResult{
		CheckoutURL: body.Data.AuthorizationURL,
		AccessCode:  body.Data.AccessCode,
		Reference:   body.Data.Reference,
	}, nil
}

type verifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"data"`
}

func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return VerifyResult{}, err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VerifyResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return VerifyResult{}, fmt.Errorf("%w: verify returned %d", ErrGatewayRequest, resp.StatusCode)
	}
	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Status:      normalizeStatus(body.Data.Status),
		AmountMinor: body.Data.Amount,
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
}

func normalizeStatus(raw string) Status {
	switch raw {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusPending
	}
}
