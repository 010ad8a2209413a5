package e2e

import (
	"github.com/cucumber/godog"

	"canopy/e2e/steps/common"
	"canopy/e2e/steps/ledger"
	"canopy/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Caller selection, raw requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Project, donation, report and metric operations
	ledger.RegisterSteps(ctx, tc)

	ratelimit.RegisterSteps(ctx, tc)
}
