package cvr

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLookupIntegration(t *testing.T) {
	apiKey := os.Getenv("CVR_API_KEY")
	number := os.Getenv("CVR_TEST_NUMBER")
	if number == "" {
		number = "42718033"
	}

	if apiKey == "" {
		t.Skip("CVR_API_KEY must be set to run this test")
	}

	client, err := NewClient(Config{
		APIKey: apiKey,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	company, found, err := client.Lookup(ctx, number)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if !found {
		t.Logf("CVR lookup returned no company for %s; check number or quota", number)
		return
	}

	t.Logf("Company: %s (%s) industry=%q employees=%d city=%q",
		company.Name, company.CVRNumber, company.IndustryText, company.Employees, company.City)

	companies, err := client.SearchByName(ctx, company.Name, 3)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	for i, c := range companies {
		t.Logf("Result %d: %s (%s)", i+1, c.Name, c.CVRNumber)
	}
}
