package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/plancart/domain/billing"
	"github.com/artpar/plancart/domain/cart"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/artpar/plancart/domain/ledger"
)

// =============================================================================
// Client Tests (remote.go)
// =============================================================================

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ClientConfig
		wantBase string
		wantKey  string
	}{
		{
			name: "with all fields",
			cfg: ClientConfig{
				BaseURL: "https://api.example.com/",
				APIKey:  "test-key",
				Timeout: 30 * time.Second,
				Headers: map[string]string{"X-Custom": "value"},
			},
			wantBase: "https://api.example.com",
			wantKey:  "test-key",
		},
		{
			name:     "empty config",
			cfg:      ClientConfig{},
			wantBase: "",
			wantKey:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			if client.baseURL != tt.wantBase {
				t.Errorf("baseURL = %q, want %q", client.baseURL, tt.wantBase)
			}
			if client.apiKey != tt.wantKey {
				t.Errorf("apiKey = %q, want %q", client.apiKey, tt.wantKey)
			}
			if client.httpClient.Timeout == 0 {
				t.Error("timeout not defaulted")
			}
		})
	}
}

func TestClientRequest_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Tenant"); got != "acme" {
			t.Errorf("X-Tenant = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "1" {
			t.Errorf("query q = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["hello"] != "world" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "secret",
		Headers: map[string]string{"X-Tenant": "acme"},
	})

	var result map[string]string
	err := client.Request(context.Background(), http.MethodPost, "/x", map[string][]string{"q": {"1"}}, map[string]string{"hello": "world"}, &result)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if result["ok"] != "yes" {
		t.Errorf("result = %v", result)
	}
}

func TestClientRequest_ErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"flat error", http.StatusBadRequest, `{"error":"bad price"}`, "bad price"},
		{"nested error", http.StatusBadGateway, `{"error":{"message":"stripe down"}}`, "stripe down"},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(ClientConfig{BaseURL: server.URL})
			err := client.Request(context.Background(), http.MethodGet, "/", nil, nil, nil)

			var re *RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want *RemoteError", err)
			}
			if re.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", re.StatusCode, tt.status)
			}
			if re.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", re.Message, tt.wantMsg)
			}
		})
	}
}

func TestClientRequest_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	if err := client.Request(ctx, http.MethodGet, "/", nil, nil, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestIsNotFound(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &RemoteError{StatusCode: 404})
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"404", &RemoteError{StatusCode: 404}, true},
		{"wrapped 404", wrapped, true},
		{"500", &RemoteError{StatusCode: 500}, false},
		{"other", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimestamp_Unmarshal(t *testing.T) {
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{`1735689600`, want},
		{`"1735689600"`, want},
		{`"2025-01-01T00:00:00Z"`, want},
		{`null`, time.Time{}},
	}
	for _, tt := range tests {
		var ts Timestamp
		if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.in, err)
			continue
		}
		if !ts.Equal(tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, ts.Time, tt.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
	if ts.Ptr() != nil {
		t.Error("Ptr() of zero timestamp should be nil")
	}
}

// =============================================================================
// CatalogProvider Tests (catalog.go)
// =============================================================================

const catalogBody = `{
  "products": [
    {"id": "trial", "name": "Free trial", "type": "trial",
     "credits": {"test_case": 20, "user_story": 5}, "prices": []},
    {"id": "basic", "name": "Basic", "type": "subscription",
     "metadata": {"team_members": 3},
     "prices": [
       {"price_id": "basic_3m", "currency": "usd", "amount": 29.5, "interval": "month", "interval_count": 3, "credits": 500},
       {"price_id": "basic_3m_xl", "currency": "usd", "amount": "49.00", "interval": "month", "interval_count": 3, "credits": 1000}
     ]},
    {"id": "topup", "name": "Top-up",
     "prices": [{"price_id": "topup_100", "currency": "usd", "amount": 10, "credits": 100}]}
  ]
}`

func TestCatalogProvider_FetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/US" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("duration"); got != "3" {
			t.Errorf("duration = %q", got)
		}
		if got := r.URL.Query().Get("include_trials"); got != "true" {
			t.Errorf("include_trials = %q", got)
		}
		io.WriteString(w, catalogBody)
	}))
	defer server.Close()

	p := NewCatalogProvider(NewClient(ClientConfig{BaseURL: server.URL}))
	c, err := p.FetchCatalog(context.Background(), catalog.Key{Country: "us", Duration: 3, IncludeTrials: true})
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}

	if c.Key.Country != "US" {
		t.Errorf("Key.Country = %q", c.Key.Country)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if c.Currency() != "USD" {
		t.Errorf("Currency = %q", c.Currency())
	}

	trial, _ := c.Product("trial")
	if trial.Kind != catalog.KindTrial || len(trial.Options) != 1 {
		t.Fatalf("trial = %+v", trial)
	}
	if tc, us, ok := trial.Options[0].Credits.Bundle(); !ok || tc != 20 || us != 5 {
		t.Errorf("trial credits = %v", trial.Options[0].Credits)
	}
	if trial.Options[0].PriceID != "trial" {
		t.Errorf("trial price id = %q", trial.Options[0].PriceID)
	}

	basic, _ := c.Product("basic")
	xl, ok := basic.Option("basic_3m_xl")
	if !ok || xl.Amount.String() != "49" {
		t.Errorf("basic_3m_xl = %+v", xl)
	}
	if n, _ := basic.Options[0].Credits.Count(); n != 500 {
		t.Errorf("basic credits = %d", n)
	}
	if basic.Metadata["team_members"] != float64(3) {
		t.Errorf("metadata = %v", basic.Metadata)
	}

	topup, _ := c.Product("topup")
	if topup.Kind != catalog.KindTopUp {
		t.Errorf("inferred kind = %q, want top_up", topup.Kind)
	}
}

func TestCatalogProvider_FetchCatalog_FloatCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"products":[{"id":"a","type":"top_up","prices":[{"price_id":"p","currency":"usd","amount":9,"credits":500.0}]}]}`)
	}))
	defer server.Close()

	p := NewCatalogProvider(NewClient(ClientConfig{BaseURL: server.URL}))
	c, err := p.FetchCatalog(context.Background(), catalog.Key{Country: "US"})
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	a, _ := c.Product("a")
	if n, ok := a.Options[0].Credits.Count(); !ok || n != 500 {
		t.Errorf("credits = %v", a.Options[0].Credits)
	}
}

func TestCatalogProvider_FetchCatalog_Invalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"products":[{"id":"a","type":"top_up","prices":[{"price_id":"p","amount":-1}]}]}`)
	}))
	defer server.Close()

	p := NewCatalogProvider(NewClient(ClientConfig{BaseURL: server.URL}))
	if _, err := p.FetchCatalog(context.Background(), catalog.Key{Country: "US"}); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := p.FetchCatalog(context.Background(), catalog.Key{Country: "USA"}); err == nil {
		t.Error("expected error for invalid key")
	}
}

// =============================================================================
// SessionInitiator Tests (checkout.go)
// =============================================================================

func TestSessionInitiator_CreateCheckoutSession(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantSecret string
		wantURL    string
		wantErr    bool
	}{
		{"embedded", `{"clientSecret":"cs_secret"}`, "cs_secret", "", false},
		{"hosted", `{"url":"https://pay.example.com/s/1"}`, "", "https://pay.example.com/s/1", false},
		{"no handle", `{}`, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got cart.CheckoutRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/create-checkout-session" {
					t.Errorf("%s %s", r.Method, r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&got)
				io.WriteString(w, tt.response)
			}))
			defer server.Close()

			s := NewSessionInitiator(NewClient(ClientConfig{BaseURL: server.URL}))
			req := cart.CheckoutRequest{
				Email:          "a@b.co",
				CountryCode:    "US",
				IsSubscription: true,
				Items:          []cart.CheckoutItem{{PriceID: "basic_3m", Credits: catalog.Scalar(500)}},
			}
			sess, err := s.CreateCheckoutSession(context.Background(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if sess.ClientSecret != tt.wantSecret || sess.RedirectURL != tt.wantURL {
				t.Errorf("session = %+v", sess)
			}
			if got.Email != "a@b.co" || !got.IsSubscription || len(got.Items) != 1 || got.Items[0].PriceID != "basic_3m" {
				t.Errorf("backend received %+v", got)
			}
		})
	}
}

// =============================================================================
// SubscriptionService Tests (subscription.go)
// =============================================================================

func TestSubscriptionService_GetSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("email") {
		case "sub@example.com":
			io.WriteString(w, `{"subscription":{"id":"sub_1","status":"active",
				"price":{"currency":"usd","amount":89.99,"interval":"month","interval_count":3},
				"current_period_start":1735689600,"current_period_end":1743465600,"cancel_at_period_end":true}}`)
		case "none@example.com":
			io.WriteString(w, `{"subscription":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := NewSubscriptionService(NewClient(ClientConfig{BaseURL: server.URL}))

	sub, err := s.GetSubscription(context.Background(), "sub@example.com")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub == nil {
		t.Fatal("expected subscription")
	}
	if sub.Status != billing.SubscriptionStatusActive || !sub.IsCancelling() {
		t.Errorf("sub = %+v", sub)
	}
	if sub.Price.Currency != "USD" || sub.Price.Amount.String() != "89.99" || sub.Price.IntervalCount != 3 {
		t.Errorf("price = %+v", sub.Price)
	}
	if !sub.CurrentPeriodStart.Equal(time.Unix(1735689600, 0)) {
		t.Errorf("CurrentPeriodStart = %v", sub.CurrentPeriodStart)
	}

	for _, email := range []string{"none@example.com", "missing@example.com"} {
		sub, err := s.GetSubscription(context.Background(), email)
		if err != nil || sub != nil {
			t.Errorf("GetSubscription(%s) = %v, %v; want nil, nil", email, sub, err)
		}
	}
}

func TestSubscriptionService_CreateSubscriptionInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req billing.InvoiceRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.PriceID != "basic_3m" || req.CountryCode != "DE" {
			t.Errorf("request = %+v", req)
		}
		io.WriteString(w, `{"amount_due":29.5,"currency":"eur","due_date":"2025-01-31T00:00:00Z","invoice_url":"https://inv","pdf_url":"https://pdf"}`)
	}))
	defer server.Close()

	s := NewSubscriptionService(NewClient(ClientConfig{BaseURL: server.URL}))
	inv, err := s.CreateSubscriptionInvoice(context.Background(), billing.InvoiceRequest{Email: "a@b.co", PriceID: "basic_3m", CountryCode: "DE"})
	if err != nil {
		t.Fatalf("CreateSubscriptionInvoice failed: %v", err)
	}
	if inv.AmountDue.String() != "29.5" || inv.Currency != "EUR" || inv.InvoiceURL != "https://inv" {
		t.Errorf("invoice = %+v", inv)
	}
	if inv.DueDate == nil || inv.DueDate.Day() != 31 {
		t.Errorf("DueDate = %v", inv.DueDate)
	}
}

func TestSubscriptionService_CreatePortalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["email"] == "" {
			io.WriteString(w, `{}`)
			return
		}
		io.WriteString(w, `{"url":"https://portal.example.com"}`)
	}))
	defer server.Close()

	s := NewSubscriptionService(NewClient(ClientConfig{BaseURL: server.URL}))
	ps, err := s.CreatePortalSession(context.Background(), "a@b.co", "")
	if err != nil || ps.URL != "https://portal.example.com" {
		t.Errorf("CreatePortalSession = %+v, %v", ps, err)
	}
	if _, err := s.CreatePortalSession(context.Background(), "", ""); err == nil {
		t.Error("expected error for empty url")
	}
}

// =============================================================================
// TransactionSource Tests (transactions.go)
// =============================================================================

func TestTransactionSource_ListTransactions(t *testing.T) {
	var withSummary atomic.Bool
	withSummary.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_id") != "3" || q.Get("primary") != "credit" || q.Has("type") {
			t.Errorf("query = %v", q)
		}
		body := `{"transactions":[
			{"id":"t1","created_at":"2025-01-02T10:00:00Z","transaction_type":"received","source_type":"subscription","primary_type":"credit","value":500,"subscription_id":"sub_abcdefghij"},
			{"id":"t2","created_at":1735812000,"transaction_type":"used","source_type":"subscription","primary_type":"credit","value":-20}
		]`
		if withSummary.Load() {
			body += `,"summary":{"total_credits_received":900,"total_credits_used":20}`
		}
		io.WriteString(w, body+"}")
	}))
	defer server.Close()

	s := NewTransactionSource(NewClient(ClientConfig{BaseURL: server.URL}))
	f := ledger.Filter{UserID: "3", Primary: ledger.PrimaryCredit}

	txs, sum, err := s.ListTransactions(context.Background(), f)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 2 || txs[0].Type != ledger.TypeReceived || txs[1].Value != -20 {
		t.Errorf("txs = %+v", txs)
	}
	if ledger.Reference(txs[0]) != "cdefghij" {
		t.Errorf("Reference = %q", ledger.Reference(txs[0]))
	}
	if sum.Credits.Received != 900 {
		t.Errorf("backend summary not used: %+v", sum)
	}

	withSummary.Store(false)
	_, sum, err = s.ListTransactions(context.Background(), f)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if sum.Credits != (ledger.Totals{Received: 500, Used: 20}) {
		t.Errorf("computed summary = %+v", sum)
	}
}

// =============================================================================
// CountryLocator Tests (geo.go)
// =============================================================================

func TestCountryLocator_Country(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8/json/":
			io.WriteString(w, `{"country_code":"us"}`)
		case "/json/":
			io.WriteString(w, `{"country_code":"DE"}`)
		default:
			io.WriteString(w, `{"error":true,"reason":"Invalid IP Address"}`)
		}
	}))
	defer server.Close()

	l := NewCountryLocator(server.URL, time.Second)
	tests := []struct {
		ip      string
		want    string
		wantErr bool
	}{
		{"8.8.8.8", "US", false},
		{"127.0.0.1", "DE", false},
		{"10.0.0.7", "DE", false},
		{"1.2.3.4", "", true},
	}
	for _, tt := range tests {
		got, err := l.Country(context.Background(), tt.ip)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Country(%s) = %q, %v; want %q (err %v)", tt.ip, got, err, tt.want, tt.wantErr)
		}
	}
}
