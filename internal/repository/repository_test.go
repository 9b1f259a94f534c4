package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/foxzi/splitmail/internal/db"
	"github.com/foxzi/splitmail/internal/models"
)

// setupTestDB creates a temporary SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database.DB
}

// createTestCampaign inserts a draft campaign with two variations
func createTestCampaign(t *testing.T, database *sql.DB) *models.Campaign {
	t.Helper()

	campaigns := NewCampaignRepository(database)
	c := &models.Campaign{
		Name:         "Acme - Launch",
		CompanyName:  "Acme",
		ProductName:  "Widget",
		OfferDetails: "20% off for early birds",
		CampaignType: "product launch",
	}
	if err := campaigns.Create(c); err != nil {
		t.Fatalf("failed to create campaign: %v", err)
	}

	for _, name := range []string{"Variation_A", "Variation_B"} {
		v := &models.Variation{
			CampaignID: c.ID,
			Name:       name,
			Subject:    name + " subject",
			Body:       "Hi there,\n\nCheck this out.\n\n[Learn More](https://acme.example/widget)",
		}
		if err := campaigns.AddVariation(v); err != nil {
			t.Fatalf("failed to add variation: %v", err)
		}
	}

	return c
}
