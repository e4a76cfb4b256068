package main

import (
	"context"
	"fmt"

	"github.com/artpar/plancart/core/formatter"
	"github.com/artpar/plancart/domain/ledger"
	"github.com/spf13/cobra"
)

var (
	txUserID  string
	txType    string
	txSource  string
	txPrimary string
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List credit and scan transactions for a user",
	Long: `List transactions from the backend with optional filters.

Examples:
  plancart transactions --user-id u_123
  plancart transactions --user-id u_123 --type used --primary scan -o json`,
	RunE: runTransactions,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)

	transactionsCmd.Flags().StringVar(&txUserID, "user-id", "", "user to list transactions for")
	transactionsCmd.Flags().StringVar(&txType, "type", "", "received, used or reset")
	transactionsCmd.Flags().StringVar(&txSource, "source", "", "subscription, top_up, trial or cancel_subscription")
	transactionsCmd.Flags().StringVar(&txPrimary, "primary", "", "credit or scan")
	transactionsCmd.MarkFlagRequired("user-id")
}

func runTransactions(cmd *cobra.Command, args []string) error {
	out, err := printer()
	if err != nil {
		return err
	}
	_, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := svc.Transactions(context.Background(), ledger.Filter{
		UserID:  txUserID,
		Type:    ledger.Type(txType),
		Source:  ledger.Source(txSource),
		Primary: ledger.Primary(txPrimary),
	})
	if err != nil {
		return err
	}

	ds := formatter.Dataset{
		Kind:    "transactions",
		Columns: []string{"date", "type", "source", "primary", "value", "reference"},
	}
	for _, tx := range list.Transactions {
		ds.Records = append(ds.Records, map[string]any{
			"id":          tx.ID,
			"date":        tx.CreatedAt,
			"type":        string(tx.Type),
			"source":      string(tx.Source),
			"primary":     string(tx.Primary),
			"value":       tx.Value,
			"description": tx.Description,
			"reference":   ledger.Reference(tx),
		})
	}

	w := cmd.OutOrStdout()
	if err := out.FormatList(w, ds, formatter.FormatOptions{}); err != nil {
		return err
	}
	if outputFormat == "table" {
		s := list.Summary
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Credits: received %d, used %d, reset %d\n", s.Credits.Received, s.Credits.Used, s.Credits.Reset)
		fmt.Fprintf(w, "Scans:   received %d, used %d, reset %d\n", s.Scans.Received, s.Scans.Used, s.Scans.Reset)
	}
	return nil
}
