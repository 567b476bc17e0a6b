// Package gateway talks to the payment gateway: webhook payload parsing,
// shared-secret signature verification and plan lookups. Charges themselves
// are initiated from the frontend with the public key; this service only
// consumes the asynchronous confirmations and the plan catalogue.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SignatureHeader is the shared-secret header set by the gateway on every
// webhook delivery.
const SignatureHeader = "verif-hash"

var (
	// ErrGateway wraps any failed or timed-out outbound gateway call.
	ErrGateway = errors.New("gateway error")
	// ErrBadPayload marks a webhook body that cannot be parsed.
	ErrBadPayload = errors.New("malformed webhook payload")
)

// Event is the webhook notification body.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	ID          int64  `json:"id"`
	TxRef       string `json:"tx_ref"` // "<invoice_number>/<school_id>"
	Status      string `json:"status"` // "successful" | anything else
	CreatedAt   string `json:"created_at"`
	PaymentPlan int64  `json:"payment_plan,omitempty"`
	NextDueDate string `json:"next_due_date,omitempty"`
}

// Successful reports whether the payment went through.
func (d EventData) Successful() bool { return d.Status == "successful" }

// TransactionID is the gateway transaction identifier as a string key,
// suitable for the idempotency index.
func (d EventData) TransactionID() string { return strconv.FormatInt(d.ID, 10) }

// NextDue parses the next_due_date field. Zero when absent or malformed.
func (d EventData) NextDue() time.Time {
	if d.NextDueDate == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, d.NextDueDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if ev.Data.TxRef == "" {
		return nil, fmt.Errorf("%w: missing tx_ref", ErrBadPayload)
	}
	return &ev, nil
}

// SplitTxRef splits "<invoice_number>/<school_id>".
func SplitTxRef(ref string) (invoiceNumber string, schoolID uint, err error) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("%w: tx_ref %q", ErrBadPayload, ref)
	}
	id64, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: tx_ref %q", ErrBadPayload, ref)
	}
	return parts[0], uint(id64), nil
}

// VerifySignature compares the webhook signature header against the
// configured secret in constant time. An empty configured secret never
// verifies: signature checking cannot be switched off by omission.
func VerifySignature(header, secret string) bool {
	if secret == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}

// PlanInfo is the gateway's subscription-plan record. Name maps it to a
// local plan.
type PlanInfo struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Interval string          `json:"interval"`
}

// Client calls the gateway REST API. Every request carries the configured
// timeout; a timed-out call surfaces ErrGateway and leaves no local state
// behind (the webhook is the synchronization point for payment results).
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Plan fetches one subscription plan by gateway id.
func (c *Client) Plan(ctx context.Context, id int64) (*PlanInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/payment-plans/%d", c.BaseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: plan %d status %d", ErrGateway, id, resp.StatusCode)
	}
	var envelope struct {
		Status string   `json:"status"`
		Data   PlanInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode plan: %v", ErrGateway, err)
	}
	return &envelope.Data, nil
}
