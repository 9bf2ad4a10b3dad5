package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	PATCH(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	Remember(key, value string)
	Recall(key string) string
}

// RegisterSteps registers domain lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &domainSteps{tc: tc}

	ctx.Step(`^a fresh domain name under "([^"]*)"$`, steps.freshName)
	ctx.Step(`^I check the domain$`, steps.check)
	ctx.Step(`^I check the domain with a "([^"]*)" fee quote$`, steps.checkWithFee)
	ctx.Step(`^I create the domain for (\d+) years? with auth info "([^"]*)"$`, steps.create)
	ctx.Step(`^I create the domain without auth info$`, steps.createWithoutAuthInfo)
	ctx.Step(`^I fetch the domain$`, steps.info)
	ctx.Step(`^I fetch the domain with auth info "([^"]*)"$`, steps.infoWithAuth)
	ctx.Step(`^I remember the expiry date$`, steps.rememberExpiry)
	ctx.Step(`^I renew the domain for (\d+) years?$`, steps.renew)
	ctx.Step(`^I set the auth info to "([^"]*)"$`, steps.setAuthInfo)
	ctx.Step(`^I read the domain history$`, steps.history)
}

type domainSteps struct {
	tc TestContext
}

func (s *domainSteps) name() string { return s.tc.Recall("domain") }

func (s *domainSteps) freshName(ctx context.Context, tld string) error {
	s.tc.Remember("domain", fmt.Sprintf("e2e-%d.%s", time.Now().UnixNano(), tld))
	return nil
}

func (s *domainSteps) check(ctx context.Context) error {
	return s.tc.GET("/v1/domains/"+s.name()+"/check", nil)
}

func (s *domainSteps) checkWithFee(ctx context.Context, command string) error {
	return s.tc.GET("/v1/domains/"+s.name()+"/check?fee="+command, nil)
}

func (s *domainSteps) create(ctx context.Context, years int, authInfo string) error {
	return s.tc.POST("/v1/domains", map[string]interface{}{
		"name":      s.name(),
		"period":    map[string]interface{}{"value": years, "unit": "y"},
		"auth_info": authInfo,
	})
}

func (s *domainSteps) createWithoutAuthInfo(ctx context.Context) error {
	return s.tc.POST("/v1/domains", map[string]interface{}{
		"name": s.name(),
	})
}

func (s *domainSteps) info(ctx context.Context) error {
	return s.tc.GET("/v1/domains/"+s.name(), nil)
}

func (s *domainSteps) infoWithAuth(ctx context.Context, authInfo string) error {
	return s.tc.GET("/v1/domains/"+s.name(), map[string]string{"X-Auth-Info": authInfo})
}

func (s *domainSteps) rememberExpiry(ctx context.Context) error {
	v, err := s.tc.GetResponseField("expires")
	if err != nil {
		return err
	}
	exp, err := time.Parse(time.RFC3339, fmt.Sprint(v))
	if err != nil {
		return fmt.Errorf("expiry %v: %w", v, err)
	}
	s.tc.Remember("expiry", exp.UTC().Format(time.DateOnly))
	return nil
}

func (s *domainSteps) renew(ctx context.Context, years int) error {
	return s.tc.POST("/v1/domains/"+s.name()+"/renew", map[string]interface{}{
		"cur_exp_date": s.tc.Recall("expiry"),
		"period":       map[string]interface{}{"value": years, "unit": "y"},
	})
}

func (s *domainSteps) setAuthInfo(ctx context.Context, authInfo string) error {
	return s.tc.PATCH("/v1/domains/"+s.name(), map[string]interface{}{
		"auth_info": authInfo,
	})
}

func (s *domainSteps) history(ctx context.Context) error {
	return s.tc.GET("/v1/domains/"+s.name()+"/history", nil)
}
