package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the gherkin scenarios against a running gateway. It is
// skipped unless E2E_BASE_URL is set; E2E_WRITER_TOKEN and E2E_READER_TOKEN
// carry tokens minted with `eppctl token mint` (writer: all three scopes,
// reader: epp:read only).
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("E2E_BASE_URL not set")
	}
	tc := NewTestContext(baseURL, map[string]string{
		"writer": os.Getenv("E2E_WRITER_TOKEN"),
		"reader": os.Getenv("E2E_READER_TOKEN"),
	})

	suite := godog.TestSuite{
		Name: "epp-gateway",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e scenarios failed")
	}
}
