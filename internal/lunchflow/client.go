package lunchflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"

	"github.com/totallynotjon/actual-flow/internal/model"
)

// DefaultBaseURL is the production Lunch Flow API.
const DefaultBaseURL = "https://api.lunchflow.app/v1"

const dateFormat = "2006-01-02"

// Client talks to the Lunch Flow REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client. An empty baseURL selects the production API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the Lunch Flow API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lunchflow API: status %d: %s", e.Status, e.Body)
}

// User identifies the owner of an API key.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Me returns the user that owns the API key. The setup wizard calls this
// to verify a key before saving it.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.get(ctx, "/me", nil, &resp); err != nil {
		return nil, err
	}
	return &User{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

// Accounts lists the bank accounts visible to the API key.
func (c *Client) Accounts(ctx context.Context) ([]model.SourceAccount, error) {
	var resp struct {
		Accounts []accountJSON `json:"accounts"`
	}
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, err
	}
	accounts := make([]model.SourceAccount, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accounts = append(accounts, model.SourceAccount{
			ID:          a.ID,
			Name:        a.Name,
			Institution: a.Institution,
			Currency:    a.Currency,
			Status:      a.Status,
		})
	}
	return accounts, nil
}

// Transactions fetches one account's transactions, newest last. A zero
// start time fetches the account's full history.
func (c *Client) Transactions(ctx context.Context, accountID int64, start time.Time) ([]model.SourceTransaction, error) {
	params := url.Values{}
	params.Set("account_id", strconv.FormatInt(accountID, 10))
	if !start.IsZero() {
		params.Set("start_date", start.Format(dateFormat))
	}

	var resp struct {
		Transactions []transactionJSON `json:"transactions"`
	}
	if err := c.get(ctx, "/transactions", params, &resp); err != nil {
		return nil, err
	}

	txns := make([]model.SourceTransaction, 0, len(resp.Transactions))
	for _, t := range resp.Transactions {
		txn, err := t.toModel()
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", accountID, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// accountJSON and transactionJSON are the wire shapes. Dates and amounts
// arrive as strings and get parsed here at the boundary; a null id marks
// a pending transaction.
type accountJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

type transactionJSON struct {
	ID          *int64 `json:"id"`
	AccountID   int64  `json:"account_id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	IsPending   bool   `json:"is_pending"`
}

func (t transactionJSON) toModel() (model.SourceTransaction, error) {
	date, err := time.Parse(dateFormat, t.Date)
	if err != nil {
		return model.SourceTransaction{}, fmt.Errorf("parsing date %q: %w", t.Date, err)
	}
	amount, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return model.SourceTransaction{}, fmt.Errorf("parsing amount %q: %w", t.Amount, err)
	}
	return model.SourceTransaction{
		ID:          null.FromPtr(t.ID),
		AccountID:   t.AccountID,
		Date:        date,
		Amount:      amount,
		Currency:    t.Currency,
		Merchant:    t.Merchant,
		Description: t.Description,
		IsPending:   t.IsPending,
	}, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
