package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bitfantasy/autotrade/internal/market/entity"
	"github.com/bitfantasy/autotrade/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_market"
	JWTSecret  = "autotrade-test-jwt-secret"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "autotrade")
	password := getEnv("DB_PASSWORD", "autotrade")
	dbname := getEnv("DB_NAME", "autotrade")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Buyer{},
		&entity.Vendor{},
		&entity.ProcurementRequest{},
		&entity.Quote{},
		&entity.NegotiationMessage{},
		&entity.Order{},
		&entity.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email, party string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"party": party,
		"iss":   "autotrade",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default buyer test user
func DefaultTestToken() string {
	return GenerateTestToken("test-buyer-001", "Test Buyer", "buyer@test.com", "buyer")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses a JSON object response body
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// ParseListResponse parses a JSON array response body
func ParseListResponse(w *httptest.ResponseRecorder) []map[string]interface{} {
	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedBuyer creates a test buyer in the database
func SeedBuyer(t *testing.T, db *gorm.DB, id, companyName, email string) *entity.Buyer {
	t.Helper()
	buyer := &entity.Buyer{
		ID:           id,
		CompanyName:  companyName,
		Email:        email,
		Industry:     "restaurant",
		CreditRating: "A",
		CreatedAt:    time.Now(),
	}
	if err := db.Create(buyer).Error; err != nil {
		t.Fatalf("Failed to seed test buyer: %v", err)
	}
	return buyer
}

// SeedVendor creates a test vendor in the database
func SeedVendor(t *testing.T, db *gorm.DB, id, name string, categories []string, rating, minOrderValue float64, paymentTerms string) *entity.Vendor {
	t.Helper()
	vendor := &entity.Vendor{
		ID:            id,
		Name:          name,
		Email:         id + "@vendor.test",
		Categories:    entity.StringArray(categories),
		Rating:        rating,
		Verified:      rating >= 4.5,
		MinOrderValue: minOrderValue,
		PaymentTerms:  paymentTerms,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(vendor).Error; err != nil {
		t.Fatalf("Failed to seed test vendor: %v", err)
	}
	return vendor
}

// SeedRequest creates a test procurement request in the database
func SeedRequest(t *testing.T, db *gorm.DB, id, buyerID, productName, category string, quantity float64, status string) *entity.ProcurementRequest {
	t.Helper()
	request := &entity.ProcurementRequest{
		ID:          id,
		BuyerID:     buyerID,
		ProductName: productName,
		Category:    category,
		Quantity:    quantity,
		Unit:        "cases",
		Status:      status,
		Urgency:     entity.UrgencyMedium,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("Failed to seed test request: %v", err)
	}
	return request
}

// SeedQuote creates a test quote in the database
func SeedQuote(t *testing.T, db *gorm.DB, id, requestID, vendorID string, unitPrice, totalPrice float64, status string) *entity.Quote {
	t.Helper()
	validUntil := time.Now().AddDate(0, 0, 7)
	quote := &entity.Quote{
		ID:           id,
		RequestID:    requestID,
		VendorID:     vendorID,
		UnitPrice:    unitPrice,
		TotalPrice:   totalPrice,
		DeliveryDate: time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
		PaymentTerms: "NET 30",
		Status:       status,
		ValidUntil:   &validUntil,
	}
	if err := db.Create(quote).Error; err != nil {
		t.Fatalf("Failed to seed test quote: %v", err)
	}
	return quote
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
