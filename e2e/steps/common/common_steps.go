package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	UseRole(role string) error
	ClearToken()
	Expand(s string) string
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers background and assertion steps shared by every feature
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background
	ctx.Step(`^the gateway is healthy$`, steps.gatewayIsHealthy)
	ctx.Step(`^I am the "([^"]*)" operator$`, steps.useRole)
	ctx.Step(`^I am not authenticated$`, steps.noToken)

	// Generic requests
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should be the number (\d+)$`, steps.fieldShouldBeNumber)
	ctx.Step(`^the response field "([^"]*)" should not be empty$`, steps.fieldShouldNotBeEmpty)
	ctx.Step(`^the error should be "([^"]*)"$`, steps.errorShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) gatewayIsHealthy(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) useRole(ctx context.Context, role string) error {
	return s.tc.UseRole(role)
}

func (s *commonSteps) noToken(ctx context.Context) error {
	s.tc.ClearToken()
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc.DELETE(path)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	want = s.tc.Expand(want)
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		// omitempty drops false values
		if want == "false" {
			return nil
		}
		return err
	}
	b, ok := v.(bool)
	if !ok || strconv.FormatBool(b) != want {
		return fmt.Errorf("field %q: expected %s, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNumber(ctx context.Context, field string, want int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || int(n) != want {
		return fmt.Errorf("field %q: expected %d, got %v", field, want, v)
	}
	return nil
}

func (s *commonSteps) fieldShouldNotBeEmpty(ctx context.Context, field string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		return fmt.Errorf("field %q is null", field)
	case string:
		if t == "" {
			return fmt.Errorf("field %q is empty", field)
		}
	case []interface{}:
		if len(t) == 0 {
			return fmt.Errorf("field %q is empty", field)
		}
	}
	return nil
}

func (s *commonSteps) errorShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldBe(ctx, "error", code)
}
