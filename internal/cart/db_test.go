package cart

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefrontlabs/storefront-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("STOREFRONT_DB_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func mustCreateTestUser(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Cart Tester",
		Email:        "cart-tester+" + t.Name() + "@example.com",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Title:         "Test Product " + t.Name(),
		Price:         decimal.RequireFromString(price),
		StockQuantity: 50,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create test product: %v", err)
	}
	return product
}
