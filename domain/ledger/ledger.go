// Package ledger provides credit and scan transaction value types and pure
// functions for the transaction history view.
package ledger

import (
	"fmt"
	"time"
)

// Type is what happened to the balance.
type Type string

const (
	TypeReceived Type = "received"
	TypeUsed     Type = "used"
	TypeReset    Type = "reset"
)

// Source is what caused the transaction.
type Source string

const (
	SourceSubscription       Source = "subscription"
	SourceTopUp              Source = "top_up"
	SourceTrial              Source = "trial"
	SourceCancelSubscription Source = "cancel_subscription"
)

// Primary is the balance a transaction applies to.
type Primary string

const (
	PrimaryCredit Primary = "credit"
	PrimaryScan   Primary = "scan"
)

var (
	validTypes     = map[Type]bool{TypeReceived: true, TypeUsed: true, TypeReset: true}
	validSources   = map[Source]bool{SourceSubscription: true, SourceTopUp: true, SourceTrial: true, SourceCancelSubscription: true}
	validPrimaries = map[Primary]bool{PrimaryCredit: true, PrimaryScan: true}
)

// Transaction is one balance movement (value type).
type Transaction struct {
	ID             string
	CreatedAt      time.Time
	Type           Type
	Source         Source
	Primary        Primary
	Value          int64
	Description    string
	SubscriptionID string
	PaymentID      string
}

// Reference returns a short reference for display: the last 8 characters of
// the subscription ID, else of the payment ID, else "-".
// This is a PURE function.
func Reference(tx Transaction) string {
	switch {
	case tx.SubscriptionID != "":
		return tail(tx.SubscriptionID, 8)
	case tx.PaymentID != "":
		return tail(tx.PaymentID, 8)
	default:
		return "-"
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Filter narrows the transaction list. Empty fields match everything.
type Filter struct {
	UserID  string
	Type    Type
	Source  Source
	Primary Primary
}

// Validate checks filter values against the known enumerations.
func (f Filter) Validate() error {
	if f.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if f.Type != "" && !validTypes[f.Type] {
		return fmt.Errorf("unknown transaction type %q", f.Type)
	}
	if f.Source != "" && !validSources[f.Source] {
		return fmt.Errorf("unknown transaction source %q", f.Source)
	}
	if f.Primary != "" && !validPrimaries[f.Primary] {
		return fmt.Errorf("unknown primary type %q", f.Primary)
	}
	return nil
}

// Match reports whether tx passes the filter (user ID is not checked; the
// source of transactions is already per user).
// This is a PURE function.
func (f Filter) Match(tx Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Source != "" && tx.Source != f.Source {
		return false
	}
	if f.Primary != "" && tx.Primary != f.Primary {
		return false
	}
	return true
}

// Totals are the received/used/reset sums of one balance.
type Totals struct {
	Received int64
	Used     int64
	Reset    int64
}

// Summary aggregates credits and scans.
type Summary struct {
	Credits Totals
	Scans   Totals
}

// Summarize aggregates transactions into a summary.
// Used values are accumulated as positive magnitudes.
// This is a PURE function.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		t := &s.Credits
		if tx.Primary == PrimaryScan {
			t = &s.Scans
		}
		v := tx.Value
		if v < 0 {
			v = -v
		}
		switch tx.Type {
		case TypeReceived:
			t.Received += v
		case TypeUsed:
			t.Used += v
		case TypeReset:
			t.Reset += v
		}
	}
	return s
}

// Apply filters txs, keeping order.
// This is a PURE function.
func Apply(f Filter, txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}
