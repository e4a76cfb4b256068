package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/artpar/plancart/domain/ledger"
	"github.com/artpar/plancart/ports"
)

// TransactionSource lists transactions from the backend.
//
// API Contract:
//
//	GET /api/transactions?user_id=3&type=used&source=top_up&primary=scan
//	Response: {"transactions": [...], "summary": {"total_credits_received": 500, ...}}
type TransactionSource struct {
	client *Client
}

// NewTransactionSource creates a remote transaction source.
func NewTransactionSource(client *Client) *TransactionSource {
	return &TransactionSource{client: client}
}

// RemoteTransaction is the wire format for transactions.
type RemoteTransaction struct {
	ID              string    `json:"id"`
	CreatedAt       Timestamp `json:"created_at"`
	TransactionType string    `json:"transaction_type"`
	SourceType      string    `json:"source_type"`
	PrimaryType     string    `json:"primary_type"`
	Value           int64     `json:"value"`
	Description     string    `json:"description"`
	SubscriptionID  string    `json:"subscription_id"`
	PaymentID       string    `json:"payment_id"`
}

// RemoteSummary is the wire format for the transaction summary.
type RemoteSummary struct {
	TotalCreditsReceived int64 `json:"total_credits_received"`
	TotalCreditsUsed     int64 `json:"total_credits_used"`
	TotalCreditsReset    int64 `json:"total_credits_reset"`
	TotalScansReceived   int64 `json:"total_scans_received"`
	TotalScansUsed       int64 `json:"total_scans_used"`
	TotalScansReset      int64 `json:"total_scans_reset"`
}

// ListTransactions returns the filtered transactions and their summary. When
// the backend omits the summary it is computed from the transactions.
func (s *TransactionSource) ListTransactions(ctx context.Context, f ledger.Filter) ([]ledger.Transaction, ledger.Summary, error) {
	q := url.Values{"user_id": {f.UserID}}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Source != "" {
		q.Set("source", string(f.Source))
	}
	if f.Primary != "" {
		q.Set("primary", string(f.Primary))
	}

	var resp struct {
		Transactions []RemoteTransaction `json:"transactions"`
		Summary      *RemoteSummary      `json:"summary"`
	}
	if err := s.client.Request(ctx, http.MethodGet, "/api/transactions", q, nil, &resp); err != nil {
		return nil, ledger.Summary{}, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]ledger.Transaction, len(resp.Transactions))
	for i, rt := range resp.Transactions {
		txs[i] = toTransaction(rt)
	}

	if resp.Summary == nil {
		return txs, ledger.Summarize(txs), nil
	}
	return txs, toSummary(*resp.Summary), nil
}

func toTransaction(rt RemoteTransaction) ledger.Transaction {
	return ledger.Transaction{
		ID:             rt.ID,
		CreatedAt:      rt.CreatedAt.Time,
		Type:           ledger.Type(rt.TransactionType),
		Source:         ledger.Source(rt.SourceType),
		Primary:        ledger.Primary(rt.PrimaryType),
		Value:          rt.Value,
		Description:    rt.Description,
		SubscriptionID: rt.SubscriptionID,
		PaymentID:      rt.PaymentID,
	}
}

func toSummary(rs RemoteSummary) ledger.Summary {
	return ledger.Summary{
		Credits: ledger.Totals{
			Received: rs.TotalCreditsReceived,
			Used:     rs.TotalCreditsUsed,
			Reset:    rs.TotalCreditsReset,
		},
		Scans: ledger.Totals{
			Received: rs.TotalScansReceived,
			Used:     rs.TotalScansUsed,
			Reset:    rs.TotalScansReset,
		},
	}
}

// Ensure interface compliance.
var _ ports.TransactionSource = (*TransactionSource)(nil)
