package actual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/totallynotjon/actual-flow/internal/model"
)

const (
	dateFormat = "2006-01-02"

	// importBatchSize bounds how many transactions go into one import
	// call so very long histories don't produce oversized requests.
	importBatchSize = 100
)

// Client talks to an Actual Budget sync server's HTTP API. All endpoints
// are scoped to one budget file, identified by its sync ID.
type Client struct {
	baseURL      string
	apiKey       string
	budgetSyncID string
	httpClient   *http.Client
}

// NewClient builds a Client for one budget file on the given server.
func NewClient(serverURL, apiKey, budgetSyncID string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(serverURL, "/"),
		apiKey:       apiKey,
		budgetSyncID: budgetSyncID,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the Actual server.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("actual API: status %d: %s", e.Status, e.Body)
}

// Accounts lists the budget's accounts, including closed ones.
func (c *Client) Accounts(ctx context.Context) ([]model.DestinationAccount, error) {
	var resp struct {
		Data []accountJSON `json:"data"`
	}
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, err
	}
	accounts := make([]model.DestinationAccount, 0, len(resp.Data))
	for _, a := range resp.Data {
		accounts = append(accounts, model.DestinationAccount{
			ID:     a.ID,
			Name:   a.Name,
			Closed: a.Closed,
		})
	}
	return accounts, nil
}

// Transactions returns one account's transactions. A zero since time
// fetches the account's entire history.
func (c *Client) Transactions(ctx context.Context, accountID string, since time.Time) ([]model.DestinationTransaction, error) {
	params := url.Values{}
	if !since.IsZero() {
		params.Set("since_date", since.Format(dateFormat))
	}

	var resp struct {
		Data []transactionJSON `json:"data"`
	}
	if err := c.get(ctx, "/accounts/"+accountID+"/transactions", params, &resp); err != nil {
		return nil, err
	}

	txns := make([]model.DestinationTransaction, 0, len(resp.Data))
	for _, t := range resp.Data {
		txn, err := t.toModel(accountID)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", accountID, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// ImportTransactions hands candidates to the budget's import endpoint in
// batches. The server reconciles imported_id collisions on its side, so
// re-sending a transaction updates rather than duplicates it. On a
// mid-batch failure the result covers the batches that made it through.
func (c *Client) ImportTransactions(ctx context.Context, accountID string, txns []model.DestinationTransaction) (model.ImportResult, error) {
	var result model.ImportResult
	for start := 0; start < len(txns); start += importBatchSize {
		end := start + importBatchSize
		if end > len(txns) {
			end = len(txns)
		}

		payload := struct {
			Transactions []transactionJSON `json:"transactions"`
		}{Transactions: make([]transactionJSON, 0, end-start)}
		for _, t := range txns[start:end] {
			payload.Transactions = append(payload.Transactions, fromModel(t))
		}

		var resp struct {
			Data struct {
				Added   []string `json:"added"`
				Updated []string `json:"updated"`
			} `json:"data"`
		}
		if err := c.post(ctx, "/accounts/"+accountID+"/transactions/import", payload, &resp); err != nil {
			return result, fmt.Errorf("importing batch at %d: %w", start, err)
		}
		result.Added = append(result.Added, resp.Data.Added...)
		result.Updated = append(result.Updated, resp.Data.Updated...)
	}
	return result, nil
}

// accountJSON and transactionJSON are the wire shapes. The import payload
// is built from fromModel, which has no slot for pipeline annotations, so
// those cannot reach the server.
type accountJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

type transactionJSON struct {
	ID            string `json:"id,omitempty"`
	Date          string `json:"date"`
	Amount        int64  `json:"amount"`
	PayeeName     string `json:"payee_name,omitempty"`
	ImportedPayee string `json:"imported_payee,omitempty"`
	Account       string `json:"account,omitempty"`
	Cleared       bool   `json:"cleared"`
	ImportedID    string `json:"imported_id,omitempty"`
}

func (t transactionJSON) toModel(accountID string) (model.DestinationTransaction, error) {
	date, err := time.Parse(dateFormat, t.Date)
	if err != nil {
		return model.DestinationTransaction{}, fmt.Errorf("parsing date %q: %w", t.Date, err)
	}
	account := t.Account
	if account == "" {
		account = accountID
	}
	return model.DestinationTransaction{
		ID:            t.ID,
		Date:          date,
		Amount:        t.Amount,
		ImportedPayee: t.ImportedPayee,
		PayeeName:     t.PayeeName,
		Account:       account,
		Cleared:       t.Cleared,
		ImportedID:    t.ImportedID,
	}, nil
}

func fromModel(t model.DestinationTransaction) transactionJSON {
	return transactionJSON{
		Date:          t.Date.Format(dateFormat),
		Amount:        t.Amount,
		PayeeName:     t.PayeeName,
		ImportedPayee: t.ImportedPayee,
		Cleared:       t.Cleared,
		ImportedID:    t.ImportedID,
	}
}

// url builds a budget-scoped endpoint URL.
func (c *Client) url(path string) string {
	return c.baseURL + "/v1/budgets/" + c.budgetSyncID + path
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.url(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("X-Api-Key", c.apiKey)
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
