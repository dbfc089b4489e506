package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/market/repository"
	"github.com/bitfantasy/autotrade/internal/market/service"
	"github.com/bitfantasy/autotrade/internal/market/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func setupQuoteFlowTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	quoteSvc := service.NewQuoteService(repos.Quote, repos.Request, repos.Negotiation, repos.ActivityLog, db)
	procurementSvc := service.NewProcurementService(repos.Request, repos.Quote, repos.Order, repos.ActivityLog, db)
	qh := NewQuoteHandler(quoteSvc, procurementSvc)
	oh := NewOrderHandler(procurementSvc, testLogger())

	api := testutil.AuthGroup(router, "/api")
	api.GET("/quotes", qh.List)
	api.POST("/quotes", qh.Create)
	api.GET("/quotes/:id", qh.Get)
	api.POST("/quotes/:id/accept", qh.Accept)
	api.POST("/quotes/:id/reject", qh.Reject)
	api.GET("/negotiations/:quoteId", qh.ListNegotiations)
	api.POST("/negotiations", qh.CreateNegotiation)
	api.GET("/orders", oh.List)
	api.POST("/orders", oh.Create)
	api.PATCH("/orders/:id/status", oh.UpdateStatus)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedMarket(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	testutil.SeedBuyer(t, env.DB, "buyer-001", "McDonald's Corp", "procurement@mcd.test")
	testutil.SeedVendor(t, env.DB, "vendor-001", "Fresh Ingredients Co", []string{"sauces"}, 4.5, 500, "NET 30")
	testutil.SeedVendor(t, env.DB, "vendor-002", "Premium Sauce Suppliers", []string{"sauces"}, 4.8, 1000, "NET 15")
}

func TestFirstQuoteFlipsRequestToNegotiating(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusOpen)

	w := testutil.DoRequest(env.Router, "POST", "/api/quotes", map[string]interface{}{
		"requestId":    "req-001",
		"vendorId":     "vendor-001",
		"unitPrice":    2.85,
		"totalPrice":   2280.00,
		"deliveryDate": "2026-09-15",
		"paymentTerms": "NET 30",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["status"] != entity.QuoteStatusPending {
		t.Errorf("Expected pending quote, got %v", resp["status"])
	}
	if resp["validUntil"] == nil {
		t.Error("Expected validUntil to be defaulted")
	}

	var request entity.ProcurementRequest
	if err := env.DB.First(&request, "id = ?", "req-001").Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if request.Status != entity.RequestStatusNegotiating {
		t.Errorf("Expected request negotiating after first quote, got %s", request.Status)
	}
}

func TestNegotiationMessagesOrderedAndHarmless(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)

	// three messages without proposedChanges
	for i := 1; i <= 3; i++ {
		w := testutil.DoRequest(env.Router, "POST", "/api/negotiations", map[string]interface{}{
			"quoteId": "quote-001",
			"sender":  "buyer",
			"message": fmt.Sprintf("message %d", i),
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("message %d: expected 201, got %d: %s", i, w.Code, w.Body.String())
		}
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/negotiations/quote-001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	list := testutil.ParseListResponse(w)
	if len(list) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(list))
	}
	for i, msg := range list {
		want := fmt.Sprintf("message %d", i+1)
		if msg["message"] != want {
			t.Errorf("position %d: expected %q, got %v", i, want, msg["message"])
		}
	}

	// messages without changes leave the quote untouched
	var quote entity.Quote
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.Status != entity.QuoteStatusPending {
		t.Errorf("Expected quote still pending, got %s", quote.Status)
	}
	if quote.TotalPrice != 2280.00 {
		t.Errorf("Expected total price unchanged, got %v", quote.TotalPrice)
	}
}

func TestProposedChangesClampAndCounter(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusPending)

	// within 30 percent: applied verbatim
	w := testutil.DoRequest(env.Router, "POST", "/api/negotiations", map[string]interface{}{
		"quoteId":         "quote-001",
		"sender":          "buyer",
		"message":         "Can you do 900?",
		"proposedChanges": map[string]interface{}{"totalPrice": 900.00},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var quote entity.Quote
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.TotalPrice != 900.00 {
		t.Errorf("Expected total 900.00, got %v", quote.TotalPrice)
	}
	if quote.Status != entity.QuoteStatusCountered {
		t.Errorf("Expected countered, got %s", quote.Status)
	}

	// way beyond 30 percent: clamped to the bound (900 * 0.7 = 630)
	w = testutil.DoRequest(env.Router, "POST", "/api/negotiations", map[string]interface{}{
		"quoteId":         "quote-001",
		"sender":          "buyer",
		"message":         "How about 100?",
		"proposedChanges": map[string]interface{}{"totalPrice": 100.00},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.TotalPrice != 630.00 {
		t.Errorf("Expected clamped total 630.00, got %v", quote.TotalPrice)
	}

	// non-price fields are applied verbatim
	w = testutil.DoRequest(env.Router, "POST", "/api/negotiations", map[string]interface{}{
		"quoteId":         "quote-001",
		"sender":          "vendor",
		"message":         "We need NET 45 for that price.",
		"proposedChanges": map[string]interface{}{"paymentTerms": "NET 45", "deliveryDate": "2026-09-20"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	env.DB.First(&quote, "id = ?", "quote-001")
	if quote.PaymentTerms != "NET 45" {
		t.Errorf("Expected NET 45, got %q", quote.PaymentTerms)
	}
	if quote.DeliveryDate != "2026-09-20" {
		t.Errorf("Expected 2026-09-20, got %q", quote.DeliveryDate)
	}
}

func TestChangesOnTerminalQuoteRejected(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusCompleted)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 1000.00, entity.QuoteStatusAccepted)

	w := testutil.DoRequest(env.Router, "POST", "/api/negotiations", map[string]interface{}{
		"quoteId":         "quote-001",
		"sender":          "buyer",
		"message":         "Actually, lower it.",
		"proposedChanges": map[string]interface{}{"totalPrice": 800.00},
	}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAcceptQuoteCreatesOrderAndCompletesRequest(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)
	testutil.SeedQuote(t, env.DB, "quote-002", "req-001", "vendor-002", 3.30, 2640.00, entity.QuoteStatusCountered)

	w := testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/accept", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	order := testutil.ParseResponse(w)
	if order["quoteId"] != "quote-001" {
		t.Errorf("Expected order for quote-001, got %v", order["quoteId"])
	}
	if order["finalPrice"].(float64) != 2280.00 {
		t.Errorf("Expected final price 2280.00, got %v", order["finalPrice"])
	}
	if order["status"] != entity.OrderStatusConfirmed {
		t.Errorf("Expected confirmed order, got %v", order["status"])
	}

	var request entity.ProcurementRequest
	env.DB.First(&request, "id = ?", "req-001")
	if request.Status != entity.RequestStatusCompleted {
		t.Errorf("Expected request completed, got %s", request.Status)
	}

	var accepted, sibling entity.Quote
	env.DB.First(&accepted, "id = ?", "quote-001")
	if accepted.Status != entity.QuoteStatusAccepted {
		t.Errorf("Expected quote-001 accepted, got %s", accepted.Status)
	}
	env.DB.First(&sibling, "id = ?", "quote-002")
	if sibling.Status != entity.QuoteStatusRejected {
		t.Errorf("Expected sibling quote-002 rejected, got %s", sibling.Status)
	}
}

func TestDuplicateAcceptRejected(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)
	testutil.SeedQuote(t, env.DB, "quote-002", "req-001", "vendor-002", 3.30, 2640.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/accept", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("first accept: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// same quote again: terminal quote cannot transition
	w = testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/accept", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// sibling against a completed request is rejected too
	var sibling entity.Quote
	env.DB.First(&sibling, "id = ?", "quote-002")
	if sibling.Status != entity.QuoteStatusRejected {
		t.Fatalf("Expected sibling rejected after accept, got %s", sibling.Status)
	}

	// exactly one order exists for the request
	var count int64
	env.DB.Model(&entity.Order{}).Where("request_id = ?", "req-001").Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 order, got %d", count)
	}
}

func TestCreateOrderEndpointSharesEnginePath(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/orders", map[string]interface{}{
		"quoteId": "quote-001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var request entity.ProcurementRequest
	env.DB.First(&request, "id = ?", "req-001")
	if request.Status != entity.RequestStatusCompleted {
		t.Errorf("Expected request completed via order creation, got %s", request.Status)
	}
}

func TestRejectQuote(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/reject", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["status"] != entity.QuoteStatusRejected {
		t.Errorf("Expected rejected, got %v", resp["status"])
	}

	// rejecting again is a conflict
	w = testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/reject", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 on double reject, got %d", w.Code)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	env := setupQuoteFlowTest(t)
	token := testutil.DefaultTestToken()
	seedMarket(t, env)
	testutil.SeedRequest(t, env.DB, "req-001", "buyer-001", "Ketchup", "sauces", 800, entity.RequestStatusNegotiating)
	testutil.SeedQuote(t, env.DB, "quote-001", "req-001", "vendor-001", 2.85, 2280.00, entity.QuoteStatusPending)

	w := testutil.DoRequest(env.Router, "POST", "/api/quotes/quote-001/accept", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("accept: expected 201, got %d", w.Code)
	}
	orderID := testutil.ParseResponse(w)["id"].(string)

	w = testutil.DoRequest(env.Router, "PATCH", "/api/orders/"+orderID+"/status",
		map[string]interface{}{"status": entity.OrderStatusShipped}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("ship: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// skipping delivered -> paid is not allowed from shipped
	w = testutil.DoRequest(env.Router, "PATCH", "/api/orders/"+orderID+"/status",
		map[string]interface{}{"status": entity.OrderStatusPaid}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("skip: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}
