package e2e

import (
	"github.com/cucumber/godog"

	"epp-gateway/e2e/steps/common"
	"epp-gateway/e2e/steps/domain"
	"epp-gateway/e2e/steps/poll"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register domain lifecycle steps
	domain.RegisterSteps(ctx, tc)

	// Register message queue steps
	poll.RegisterSteps(ctx, tc)
}
