package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/internal/session"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	calc := service.NewCalculator(zap.NewNop(), nil, session.NewMemoryStore(time.Hour), metrics.New(reg))
	return NewHandler(zap.NewNop(), calc, Options{
		MaxBodySize: 4096,
		Version:     "1.2.3",
		Gatherer:    reg,
	})
}

// client replays the session cookie the way a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewReader([]byte(b))
		default:
			data, err := json.Marshal(b)
			if err != nil {
				c.t.Fatalf("failed to marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	for _, ck := range rr.Result().Cookies() {
		if ck.Name == constants.SessionCookieName {
			c.cookie = ck
		}
	}
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

var eligibleBody = map[string]interface{}{
	"isEmployed":      true,
	"monthlyIncome":   100000,
	"monthlyExpenses": 30000,
	"creditScore":     720,
}

var loanBody = map[string]interface{}{
	"principal":         500000,
	"annualRatePercent": 7.5,
	"tenureMonths":      120,
	"currency":          "$",
}

func TestHealthAndVersion(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}

	rr = c.do(http.MethodGet, "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload map[string]string
	decode(t, rr, &payload)
	if payload["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", payload["version"])
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}

func TestVersionDefaultsToDev(t *testing.T) {
	calc := service.NewCalculator(nil, nil, session.NewMemoryStore(time.Hour), nil)
	h := NewHandler(nil, calc, Options{Gatherer: prometheus.NewRegistry()})
	c := &client{t: t, handler: h}

	var payload map[string]string
	decode(t, c.do(http.MethodGet, "/api/version", nil), &payload)
	if payload["version"] != "dev" {
		t.Fatalf("expected dev version, got %q", payload["version"])
	}
}

func TestOptions(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/options", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var opts service.Options
	decode(t, rr, &opts)
	if len(opts.LoanTypes) != 4 || opts.LoanTypes[1].Name != constants.LoanTypeHome {
		t.Fatalf("unexpected loan types %+v", opts.LoanTypes)
	}
	if opts.Limits.Principal.Max != constants.MaxPrincipal {
		t.Fatalf("unexpected principal limit %+v", opts.Limits.Principal)
	}
	if opts.Defaults.Currency != "PKR" {
		t.Fatalf("unexpected default currency %q", opts.Defaults.Currency)
	}
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/api/session", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if c.cookie == nil || !session.ValidID(c.cookie.Value) {
		t.Fatalf("expected a session cookie, got %+v", c.cookie)
	}
	if !c.cookie.HttpOnly {
		t.Fatal("session cookie should be HttpOnly")
	}

	var st map[string]interface{}
	decode(t, rr, &st)
	if st["eligible"] != false {
		t.Fatalf("new session should not be eligible, got %v", st)
	}

	first := c.cookie.Value
	rr = c.do(http.MethodGet, "/api/session", nil)
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("existing session should not be reissued")
	}
	if c.cookie.Value != first {
		t.Fatal("session id changed between requests")
	}
}

func TestCalculateRequiresEligibility(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/calculate", loanBody)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = c.do(http.MethodPost, "/api/eligibility", map[string]interface{}{
		"isEmployed": false, "monthlyIncome": 100000, "monthlyExpenses": 1000, "creditScore": 800,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var res service.EligibilityResult
	decode(t, rr, &res)
	if res.Eligible || res.Reason != "must be employed" {
		t.Fatalf("unexpected eligibility result %+v", res)
	}

	rr = c.do(http.MethodPost, "/api/calculate", loanBody)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 after failed check, got %d", rr.Code)
	}
	var errPayload map[string]string
	decode(t, rr, &errPayload)
	if !strings.Contains(errPayload["error"], "employed") {
		t.Fatalf("expected the ineligibility reason in the error, got %q", errPayload["error"])
	}
}

func TestEligibleFlow(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/eligibility", eligibleBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res service.EligibilityResult
	decode(t, rr, &res)
	if !res.Eligible || res.Reason != "eligible" {
		t.Fatalf("unexpected eligibility result %+v", res)
	}

	rr = c.do(http.MethodGet, "/api/session", nil)
	var st map[string]interface{}
	decode(t, rr, &st)
	if st["eligible"] != true {
		t.Fatalf("session should be eligible, got %v", st)
	}

	rr = c.do(http.MethodPost, "/api/calculate", loanBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var calc struct {
		Installment string `json:"installment"`
		Months      int    `json:"months"`
		Rows        []struct {
			Month            int    `json:"month"`
			RemainingBalance string `json:"remainingBalance"`
		} `json:"rows"`
		BalanceSeries struct {
			Months []int `json:"months"`
		} `json:"balanceSeries"`
		Formatted struct {
			Installment string `json:"installment"`
		} `json:"formatted"`
	}
	decode(t, rr, &calc)
	if calc.Installment != "5935.09" {
		t.Fatalf("expected installment 5935.09, got %s", calc.Installment)
	}
	if calc.Months != 120 || len(calc.Rows) != 120 || len(calc.BalanceSeries.Months) != 120 {
		t.Fatalf("unexpected schedule size: months=%d rows=%d", calc.Months, len(calc.Rows))
	}
	if calc.Rows[119].RemainingBalance != "0" {
		t.Fatalf("expected zero final balance, got %s", calc.Rows[119].RemainingBalance)
	}
	if calc.Formatted.Installment != "$5,935.09" {
		t.Fatalf("unexpected formatted installment %q", calc.Formatted.Installment)
	}
}

func TestCalculateValidation(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}
	c.do(http.MethodPost, "/api/eligibility", eligibleBody)

	tests := map[string]interface{}{
		"principal too small": map[string]interface{}{"principal": 100, "annualRatePercent": 7.5, "tenureMonths": 120},
		"rate too high":       map[string]interface{}{"principal": 500000, "annualRatePercent": 50, "tenureMonths": 120},
		"unknown currency":    map[string]interface{}{"principal": 500000, "annualRatePercent": 7.5, "tenureMonths": 120, "currency": "¥"},
		"malformed json":      `{"principal": `,
		"wrong type":          `{"principal": "lots"}`,
		"principal off step":  map[string]interface{}{"principal": 512345, "annualRatePercent": 7.5, "tenureMonths": 120},
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rr := c.do(http.MethodPost, "/api/calculate", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var payload map[string]string
			decode(t, rr, &payload)
			if payload["error"] == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestMalformedBodyMessage(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/eligibility", `{"isEmployed": `)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var payload map[string]string
	decode(t, rr, &payload)
	if !strings.Contains(payload["error"], "failed to decode request") {
		t.Fatalf("expected a decode error message, got %q", payload["error"])
	}
}

func TestResetSession(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	if rr := c.do(http.MethodPost, "/api/eligibility", eligibleBody); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPost, "/api/calculate", loanBody); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 before reset, got %d", rr.Code)
	}

	rr := c.do(http.MethodDelete, "/api/session", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var st map[string]interface{}
	decode(t, c.do(http.MethodGet, "/api/session", nil), &st)
	if st["eligible"] != false {
		t.Fatalf("session should no longer be eligible, got %v", st)
	}
	if rr := c.do(http.MethodPost, "/api/calculate", loanBody); rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 after reset, got %d", rr.Code)
	}
}

func TestEligibilityValidation(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/eligibility", map[string]interface{}{
		"isEmployed": true, "monthlyIncome": 1000, "monthlyExpenses": 10, "creditScore": 1200,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	body := `{"principal": 500000, "pad": "` + strings.Repeat("x", 8192) + `"}`
	rr := c.do(http.MethodPost, "/api/eligibility", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodPost, "/api/export?format=pdf", loanBody)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 before eligibility, got %d", rr.Code)
	}

	c.do(http.MethodPost, "/api/eligibility", eligibleBody)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{format: "csv", contentType: "text/csv; charset=utf-8", prefix: "Month,EMI"},
		{format: "pdf", contentType: "application/pdf", prefix: "%PDF-"},
		{format: "xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", prefix: "PK"},
	}
	for _, tt := range tests {
		rr := c.do(http.MethodPost, "/api/export?format="+tt.format, loanBody)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d: %s", tt.format, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != tt.contentType {
			t.Fatalf("%s: unexpected content type %q", tt.format, ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "."+tt.format) {
			t.Fatalf("%s: unexpected content disposition %q", tt.format, cd)
		}
		if !strings.HasPrefix(rr.Body.String(), tt.prefix) {
			t.Fatalf("%s: body does not start with %q", tt.format, tt.prefix)
		}
	}

	rr = c.do(http.MethodPost, "/api/export?format=docx", loanBody)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown format, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}
	c.do(http.MethodPost, "/api/eligibility", eligibleBody)

	rr := c.do(http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `emi_eligibility_checks_total{result="eligible"} 1`) {
		t.Fatalf("metrics output missing eligibility counter:\n%s", rr.Body.String())
	}
}

func TestStaticIndex(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(t)}

	rr := c.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Loan EMI Calculator") {
		t.Fatal("index page not served")
	}

	rr = c.do(http.MethodGet, "/app.js", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected app.js to be served, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	calc := service.NewCalculator(nil, nil, session.NewMemoryStore(time.Hour), nil)
	h := NewHandler(nil, calc, Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		Gatherer:       prometheus.NewRegistry(),
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected CORS allow origin header, got %q", got)
	}
}
