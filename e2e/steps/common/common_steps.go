package common

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	ActAs(name string)
	Anonymous()
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers caller selection and generic response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am "([^"]*)"$`, steps.iAm)
	ctx.Step(`^I am not authenticated$`, steps.iAmNotAuthenticated)
	ctx.Step(`^I request "([^"]*)"$`, steps.iRequest)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the error should be "([^"]*)" with code (\d+)$`, steps.errorShouldBe)
	ctx.Step(`^the response error should be "([^"]*)"$`, steps.responseErrorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (-?\d+)$`, steps.fieldShouldBeNumber)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBeString)
	ctx.Step(`^the response header "([^"]*)" should be set$`, steps.headerShouldBeSet)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) iAm(name string) error {
	s.tc.ActAs(name)
	return nil
}

func (s *commonSteps) iAmNotAuthenticated() error {
	s.tc.Anonymous()
	return nil
}

func (s *commonSteps) iRequest(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) responseStatusShouldBe(expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) errorShouldBe(kind string, code int) error {
	if err := s.responseErrorShouldBe(kind); err != nil {
		return err
	}
	return s.fieldShouldBeNumber("code", code)
}

func (s *commonSteps) responseErrorShouldBe(kind string) error {
	return s.fieldShouldBeString("error", kind)
}

func (s *commonSteps) fieldShouldBeNumber(field string, expected int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	n, ok := v.(float64)
	if !ok || int(n) != expected {
		return fmt.Errorf("expected %s=%d, got %v", field, expected, v)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeString(field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if v != expected {
		raw, _ := json.Marshal(v)
		return fmt.Errorf("expected %s=%q, got %s", field, expected, raw)
	}
	return nil
}

func (s *commonSteps) headerShouldBeSet(name string) error {
	if s.tc.GetLastResponseHeader(name) == "" {
		return fmt.Errorf("expected response header %s", name)
	}
	return nil
}
