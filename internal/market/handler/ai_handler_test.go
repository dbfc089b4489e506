package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/bitfantasy/autotrade/internal/market/testutil"
)

// stubGenerator returns a fixed reply or error
type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func setupAITest(t *testing.T, gen service.TextGenerator) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	quoteSvc := service.NewQuoteService(repos.Quote, repos.Request, repos.Negotiation, repos.ActivityLog, db)
	matchingSvc := service.NewMatchingService(repos.Request, repos.Vendor, quoteSvc, gen, testLogger())
	negotiationSvc := service.NewNegotiationService(repos.Quote, repos.Request, repos.Vendor, quoteSvc, gen, testLogger())
	h := NewAIHandler(matchingSvc, negotiationSvc)

	api := testutil.AuthGroup(router, "/api")
	api.POST("/ai/match-vendors/:requestId", h.MatchVendors)
	api.POST("/ai/negotiate/:quoteId", h.Negotiate)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestMatchVendorsCreatesQuotesForCategory(t *testing.T) {
	env := setupAITest(t, &stubGenerator{err: errors.New("llm down")})
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces", "condiments"}, 4.5, 500, "NET 30")
	testutil.SeedVendor(t, env.DB, "vendor-002", "Premium Sauce Suppliers", []string{"sauces"}, 4.8, 1000, "NET 15")
	testutil.SeedVendor(t, env.DB, "vendor-003", "Bulk Dairy Solutions", []string{"dairy"}, 4.2, 2000, "NET 45")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusOpen)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/match-vendors/req-001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["success"] != true {
		t.Errorf("Expected success, got %v", resp["success"])
	}
	results := resp["results"].([]interface{})
	if len(results) != 2 {
		t.Fatalf("Expected 2 category matches, got %d", len(results))
	}

	// quotes created pending, priced per vendor rating
	var quotes []entity.Quote
	env.DB.Where("request_id = ?", "req-001").Order("vendor_id").Find(&quotes)
	if len(quotes) != 2 {
		t.Fatalf("Expected 2 quotes, got %d", len(quotes))
	}
	for _, q := range quotes {
		if q.Status != entity.QuoteStatusPending {
			t.Errorf("quote %s: expected pending, got %s", q.ID, q.Status)
		}
		if q.ValidUntil == nil {
			t.Errorf("quote %s: expected validUntil set", q.ID)
		}
	}
	// ketchup 3.00, qty 800 -> *0.95 = 2.85; vendor-001 rating 4.5 -> *1.05 = 2.99
	if quotes[0].UnitPrice != 2.99 {
		t.Errorf("vendor-001 unit price = %v, want 2.99", quotes[0].UnitPrice)
	}
	// vendor-002 rating 4.8 -> 2.85 * 1.10 = 3.13 after rounding
	if quotes[1].UnitPrice != 3.13 {
		t.Errorf("vendor-002 unit price = %v, want 3.13", quotes[1].UnitPrice)
	}

	// first quote flipped the request, outreach recorded with fallback copy
	var request entity.ProcurementRequest
	env.DB.First(&request, "id = ?", "req-001")
	if request.Status != entity.RequestStatusNegotiating {
		t.Errorf("Expected negotiating, got %s", request.Status)
	}
	var msgCount int64
	env.DB.Model(&entity.NegotiationMessage{}).Count(&msgCount)
	if msgCount != 2 {
		t.Errorf("Expected 2 outreach messages, got %d", msgCount)
	}
}

func TestMatchVendorsRequestNotFound(t *testing.T) {
	env := setupAITest(t, &stubGenerator{})
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/match-vendors/nope", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestMatchVendorsCompletedRequestRejected(t *testing.T) {
	env := setupAITest(t, &stubGenerator{})
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusCompleted)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/match-vendors/req-001", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNegotiateAppliesStructuredReply(t *testing.T) {
	gen := &stubGenerator{reply: `{"message": "We can come down to $950 total.", "proposedChanges": {"totalPrice": 950}}`}
	env := setupAITest(t, gen)
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces"}, 4.5, 500, "NET 30")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 400, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/negotiate/quote-001", map[string]interface{}{
		"sender":  "buyer",
		"message": "Can you lower the total?",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	reply := resp["reply"].(map[string]interface{})
	if reply["sender"] != string(entity.SenderAIVendor) {
		t.Errorf("Expected ai-vendor reply, got %v", reply["sender"])
	}
	if reply["message"] != "We can come down to $950 total." {
		t.Errorf("unexpected reply message: %v", reply["message"])
	}

	// changes applied through the clamped patch
	var quote entity.Quote
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.TotalPrice != 950.00 {
		t.Errorf("Expected total 950.00, got %v", quote.TotalPrice)
	}
	if quote.Status != entity.QuoteStatusCountered {
		t.Errorf("Expected countered, got %s", quote.Status)
	}

	// both inbound and reply stored
	var msgCount int64
	env.DB.Model(&entity.NegotiationMessage{}).Where("quote_id = ?", "quote-001").Count(&msgCount)
	if msgCount != 2 {
		t.Errorf("Expected 2 stored messages, got %d", msgCount)
	}
}

func TestNegotiateFallsBackOnGarbageReply(t *testing.T) {
	gen := &stubGenerator{reply: "sure, sounds good to me!"}
	env := setupAITest(t, gen)
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces"}, 4.5, 500, "NET 30")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 400, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/negotiate/quote-001", map[string]interface{}{
		"sender":  "vendor",
		"message": "Our quote stands.",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	reply := resp["reply"].(map[string]interface{})
	if reply["sender"] != string(entity.SenderAIBuyer) {
		t.Errorf("Expected ai-buyer reply, got %v", reply["sender"])
	}
	if reply["message"] != "Thank you for your quote. We're reviewing all proposals and will respond soon." {
		t.Errorf("Expected canned buyer fallback, got %v", reply["message"])
	}

	// fallback carries no changes, quote untouched
	var quote entity.Quote
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.TotalPrice != 1000.00 {
		t.Errorf("Expected total unchanged, got %v", quote.TotalPrice)
	}
	if quote.Status != entity.QuoteStatusPending {
		t.Errorf("Expected pending, got %s", quote.Status)
	}
}

func TestNegotiateRejectsBadSender(t *testing.T) {
	env := setupAITest(t, &stubGenerator{})
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces"}, 4.5, 500, "NET 30")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 400, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/negotiate/quote-001", map[string]interface{}{
		"sender":  "ai-agent",
		"message": "hi",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNegotiateTerminalQuoteRejected(t *testing.T) {
	env := setupAITest(t, &stubGenerator{})
	token := testutil.DefaultTestToken()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces"}, 4.5, 500, "NET 30")
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 400, entity.RequestStatusCompleted)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusRejected)

	w := testutil.DoRequest(env.Router, "POST", "/api/ai/negotiate/quote-001", map[string]interface{}{
		"sender":  "buyer",
		"message": "Reconsider?",
	}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
}
