package app

import (
	"fmt"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/shopspring/decimal"
)

// View is the read model of one visitor's plan selection.
type View struct {
	Loaded        bool            `json:"loaded"`
	Country       string          `json:"country,omitempty"`
	Duration      int             `json:"duration"`
	IncludeTrials bool            `json:"include_trials"`
	Currency      string          `json:"currency,omitempty"`
	Products      []ProductView   `json:"products"`
	Selections    []SelectionView `json:"selections"`
	Total         decimal.Decimal `json:"total"`
	TotalDisplay  string          `json:"total_display"`
	Subscription  bool            `json:"is_subscription"`
}

// ProductView is a product with its display state.
type ProductView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Kind           catalog.Kind   `json:"kind"`
	Options        []OptionView   `json:"options"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Selected       bool           `json:"selected"`
	Disabled       bool           `json:"disabled"`
	PendingPriceID string         `json:"pending_price_id,omitempty"`
}

// OptionView is a price option for display.
type OptionView struct {
	PriceID        string          `json:"price_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	Display        string          `json:"display"`
	Billing        string          `json:"billing"`
	Credits        catalog.Credits `json:"credits"`
	CreditsDisplay string          `json:"credits_display"`
}

// SelectionView is one cart line.
type SelectionView struct {
	ProductID string          `json:"product_id"`
	PriceID   string          `json:"price_id"`
	Amount    decimal.Decimal `json:"amount"`
	Credits   catalog.Credits `json:"credits"`
}

// newView renders a selector. A nil selector renders an unloaded view.
func newView(sel *cart.Selector) View {
	v := View{
		Products:   []ProductView{},
		Selections: []SelectionView{},
		Total:      decimal.Zero,
	}
	if sel == nil {
		v.TotalDisplay = billing.FormatAmount(decimal.Zero, "")
		return v
	}

	c := sel.Catalog()
	v.Loaded = true
	v.Country = c.Key.Country
	v.Duration = c.Key.Duration
	v.IncludeTrials = c.Key.IncludeTrials
	v.Currency = c.Currency()

	for _, p := range c.Products {
		pv := ProductView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Kind:        p.Kind,
			Metadata:    p.Metadata,
			Selected:    sel.IsSelected(p.ID),
			Disabled:    sel.IsDisabled(p.ID),
			Options:     make([]OptionView, len(p.Options)),
		}
		if key, ok := sel.PendingTier(p.ID); ok {
			pv.PendingPriceID = key
		}
		for i, o := range p.Options {
			pv.Options[i] = newOptionView(p, o)
		}
		v.Products = append(v.Products, pv)
	}

	for _, s := range sel.Selections() {
		v.Selections = append(v.Selections, SelectionView{
			ProductID: s.Product.ID,
			PriceID:   s.Option.PriceID,
			Amount:    s.Option.Amount,
			Credits:   s.Option.Credits,
		})
		if s.Product.Kind == catalog.KindSubscription {
			v.Subscription = true
		}
	}

	v.Total = sel.Total()
	v.TotalDisplay = billing.FormatAmount(v.Total, v.Currency)
	return v
}

func newOptionView(p catalog.Product, o catalog.PriceOption) OptionView {
	ov := OptionView{
		PriceID:        o.PriceID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Billing:        describeBilling(p.Kind, o),
		Credits:        o.Credits,
		CreditsDisplay: o.Credits.String(),
	}
	if p.Kind == catalog.KindTrial {
		ov.Display = "Free"
	} else {
		ov.Display = billing.FormatAmount(o.Amount, o.Currency)
	}
	return ov
}

// describeBilling renders how an option is charged, e.g. "renews every
// 3 months" or "one-time".
// This is a PURE function.
func describeBilling(kind catalog.Kind, o catalog.PriceOption) string {
	switch {
	case kind == catalog.KindTrial:
		return "free trial"
	case !o.Recurring():
		return "one-time"
	case o.IntervalCount <= 1:
		return "renews every " + string(o.Interval)
	default:
		return fmt.Sprintf("renews every %d %ss", o.IntervalCount, o.Interval)
	}
}
