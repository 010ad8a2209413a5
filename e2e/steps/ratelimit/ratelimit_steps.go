package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	ActAs(name string)
	POST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetWriteLimit() int
}

// RegisterSteps registers write rate limiting step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^"([^"]*)" uses the whole write budget$`, steps.usesWholeWriteBudget)
	ctx.Step(`^"([^"]*)" records one more metric$`, steps.recordsOneMoreMetric)
}

type ratelimitSteps struct {
	tc TestContext
}

// usesWholeWriteBudget spends exactly the configured number of writes.
func (s *ratelimitSteps) usesWholeWriteBudget(caller string) error {
	limit := s.tc.GetWriteLimit()
	if limit <= 0 {
		return godog.ErrPending
	}
	s.tc.ActAs(caller)
	for i := range limit {
		if err := s.recordMetric(); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() != http.StatusCreated {
			return fmt.Errorf("write %d of %d: status %d: %s", i+1, limit, s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
		}
	}
	return nil
}

func (s *ratelimitSteps) recordsOneMoreMetric(caller string) error {
	s.tc.ActAs(caller)
	return s.recordMetric()
}

func (s *ratelimitSteps) recordMetric() error {
	return s.tc.POST("/metrics", map[string]any{"project_id": 1, "metric_type": 4, "value": 1})
}
