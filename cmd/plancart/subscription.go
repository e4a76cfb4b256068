package main

import (
	"context"
	"fmt"

	"github.com/artpar/plancart/core/formatter"
	"github.com/artpar/plancart/domain/billing"
	"github.com/spf13/cobra"
)

var subscriptionCmd = &cobra.Command{
	Use:   "subscription EMAIL",
	Short: "Show a customer's subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubscription,
}

var portalReturnURL string

var portalCmd = &cobra.Command{
	Use:   "portal EMAIL",
	Short: "Create a billing portal link for a customer",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortal,
}

var (
	invoicePriceID string
	invoiceCountry string
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice EMAIL",
	Short: "Subscribe a customer to a price and print the first invoice",
	Long: `Create a subscription paid by invoice.

Examples:
  plancart subscription invoice jane@example.com --price-id basic_12m --country us`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoice,
}

func init() {
	rootCmd.AddCommand(subscriptionCmd)
	subscriptionCmd.AddCommand(portalCmd)
	subscriptionCmd.AddCommand(invoiceCmd)

	portalCmd.Flags().StringVar(&portalReturnURL, "return-url", "", "where the portal sends the customer back (default from config)")
	invoiceCmd.Flags().StringVar(&invoicePriceID, "price-id", "", "price to subscribe to")
	invoiceCmd.Flags().StringVar(&invoiceCountry, "country", "", "customer country code")
	invoiceCmd.MarkFlagRequired("price-id")
}

func runSubscription(cmd *cobra.Command, args []string) error {
	out, err := printer()
	if err != nil {
		return err
	}
	_, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	sub, err := svc.Subscription(context.Background(), args[0])
	if err != nil {
		return err
	}

	ds := formatter.Dataset{
		Kind:    "subscription",
		Columns: []string{"id", "status", "price", "current_period_end", "renews_at", "cancel_at_period_end"},
	}
	if sub == nil {
		if outputFormat == "table" {
			fmt.Fprintf(cmd.OutOrStdout(), "No subscription for %s.\n", args[0])
			return nil
		}
		return out.FormatRecord(cmd.OutOrStdout(), ds, nil, formatter.FormatOptions{})
	}
	return out.FormatRecord(cmd.OutOrStdout(), ds, subscriptionRecord(*sub), formatter.FormatOptions{})
}

func subscriptionRecord(s billing.Subscription) map[string]any {
	price := billing.FormatAmount(s.Price.Amount, s.Price.Currency)
	if s.Price.Interval != "" {
		price += fmt.Sprintf(" every %d %s", max(s.Price.IntervalCount, 1), s.Price.Interval)
	}
	return map[string]any{
		"id":                   s.ID,
		"status":               string(s.Status),
		"price":                price,
		"current_period_end":   s.CurrentPeriodEnd,
		"renews_at":            billing.RenewalDate(s.CurrentPeriodStart, s.Price.Interval, s.Price.IntervalCount),
		"cancel_at_period_end": s.CancelAtPeriodEnd,
	}
}

func runPortal(cmd *cobra.Command, args []string) error {
	_, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	ps, err := svc.PortalSession(context.Background(), args[0], portalReturnURL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ps.URL)
	return nil
}

func runInvoice(cmd *cobra.Command, args []string) error {
	out, err := printer()
	if err != nil {
		return err
	}
	cfg, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	country := invoiceCountry
	if country == "" {
		country = cfg.Catalog.DefaultCountry
	}
	inv, err := svc.SubscriptionInvoice(context.Background(), billing.InvoiceRequest{
		Email:       args[0],
		PriceID:     invoicePriceID,
		CountryCode: country,
	})
	if err != nil {
		return err
	}

	ds := formatter.Dataset{
		Kind:    "invoice",
		Columns: []string{"amount_due", "due_date", "invoice_url", "pdf_url"},
	}
	rec := map[string]any{
		"amount_due":  billing.FormatAmount(inv.AmountDue, inv.Currency),
		"invoice_url": inv.InvoiceURL,
		"pdf_url":     inv.PDFURL,
	}
	if inv.DueDate != nil {
		rec["due_date"] = *inv.DueDate
	}
	return out.FormatRecord(cmd.OutOrStdout(), ds, rec, formatter.FormatOptions{})
}
