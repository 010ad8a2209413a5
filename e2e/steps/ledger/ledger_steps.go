package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	ActAs(name string)
	Identity(name string) string
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Remember(name string, id uint64)
	Recall(name string) (uint64, error)
}

var statusNames = map[string]map[string]int{
	"project":  {"proposed": 1, "active": 2, "completed": 3, "suspended": 4},
	"donation": {"pending": 1, "confirmed": 2, "allocated": 3, "refunded": 4},
	"report":   {"planned": 1, "in_progress": 2, "completed": 3, "delayed": 4},
}

// RegisterSteps registers ledger operation steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	// Project registry
	ctx.Step(`^"([^"]*)" registers project "([^"]*)"$`, steps.registersProject)
	ctx.Step(`^project "([^"]*)" should have status "([^"]*)"$`, steps.projectShouldHaveStatus)
	ctx.Step(`^I set project "([^"]*)" status to "([^"]*)"$`, steps.setProjectStatus)

	// Donation ledger
	ctx.Step(`^"([^"]*)" donates (\d+) to project "([^"]*)" as "([^"]*)"$`, steps.donates)
	ctx.Step(`^I set donation "([^"]*)" status to "([^"]*)"$`, steps.setDonationStatus)
	ctx.Step(`^the donation summary of project "([^"]*)" should be (\d+) from (\d+) donors?$`, steps.donationSummaryShouldBe)
	ctx.Step(`^the donor summary of "([^"]*)" should be (\d+) across (\d+) projects?$`, steps.donorSummaryShouldBe)

	// Progress reports
	ctx.Step(`^I submit a report for project "([^"]*)" with status (\d+)$`, steps.submitReport)
	ctx.Step(`^project "([^"]*)" should have (\d+) reports?$`, steps.reportCountShouldBe)

	// Impact metrics
	ctx.Step(`^"([^"]*)" records (\d+) "([^"]*)" metrics of (\d+) for project "([^"]*)"$`, steps.recordsMetrics)
	ctx.Step(`^the "([^"]*)" summary of project "([^"]*)" should be count (\d+) total (\d+)$`, steps.metricSummaryShouldBe)
	ctx.Step(`^the "([^"]*)" average of project "([^"]*)" should be (\d+)$`, steps.metricAverageShouldBe)
	ctx.Step(`^I request the "([^"]*)" average of project "([^"]*)"$`, steps.requestMetricAverage)
}

type ledgerSteps struct {
	tc TestContext
}

var metricTypes = map[string]int{
	"species_count":        1,
	"habitat_area":         2,
	"threat_reduction":     3,
	"community_engagement": 4,
	"biodiversity_index":   5,
}

func (s *ledgerSteps) registersProject(coordinator, name string) error {
	s.tc.ActAs(coordinator)
	if err := s.tc.POST("/projects", map[string]any{
		"name":           name,
		"location":       "field site",
		"target_species": "various",
		"start_date":     1,
		"end_date":       2,
	}); err != nil {
		return err
	}
	return s.rememberCreated(name)
}

func (s *ledgerSteps) projectShouldHaveStatus(name, status string) error {
	id, err := s.tc.Recall(name)
	if err != nil {
		return err
	}
	if err := s.tc.GET(fmt.Sprintf("/projects/%d", id)); err != nil {
		return err
	}
	return s.expectNumber("status", statusNames["project"][status])
}

func (s *ledgerSteps) setProjectStatus(name, status string) error {
	id, err := s.tc.Recall(name)
	if err != nil {
		return err
	}
	return s.tc.PUT(fmt.Sprintf("/projects/%d/status", id), map[string]any{"status": statusNames["project"][status]})
}

func (s *ledgerSteps) donates(donor string, amount int, project, label string) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	s.tc.ActAs(donor)
	if err := s.tc.POST("/donations", map[string]any{"project_id": id, "amount": amount}); err != nil {
		return err
	}
	return s.rememberCreated(label)
}

func (s *ledgerSteps) setDonationStatus(label, status string) error {
	id, err := s.tc.Recall(label)
	if err != nil {
		return err
	}
	next, ok := statusNames["donation"][status]
	if !ok {
		return fmt.Errorf("unknown donation status %q", status)
	}
	return s.tc.PUT(fmt.Sprintf("/donations/%d/status", id), map[string]any{"status": next})
}

func (s *ledgerSteps) donationSummaryShouldBe(project string, total, donors int) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	if err := s.tc.GET(fmt.Sprintf("/donations/projects/%d/summary", id)); err != nil {
		return err
	}
	if err := s.expectNumber("total_amount", total); err != nil {
		return err
	}
	return s.expectNumber("donor_count", donors)
}

func (s *ledgerSteps) donorSummaryShouldBe(donor string, total, projects int) error {
	if err := s.tc.GET("/donations/donors/" + s.tc.Identity(donor) + "/summary"); err != nil {
		return err
	}
	if err := s.expectNumber("total_amount", total); err != nil {
		return err
	}
	return s.expectNumber("project_count", projects)
}

func (s *ledgerSteps) submitReport(project string, status int) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	return s.tc.POST("/reports", map[string]any{
		"project_id":  id,
		"title":       "field survey",
		"description": "quarterly transect",
		"milestone":   "baseline",
		"status":      status,
		"media_hash":  strings.Repeat("0f", 32),
	})
}

func (s *ledgerSteps) reportCountShouldBe(project string, count int) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	if err := s.tc.GET(fmt.Sprintf("/reports/projects/%d/summary", id)); err != nil {
		return err
	}
	return s.expectNumber("report_count", count)
}

func (s *ledgerSteps) recordsMetrics(verifier string, n int, metricType string, value int, project string) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	mt, ok := metricTypes[metricType]
	if !ok {
		return fmt.Errorf("unknown metric type %q", metricType)
	}
	s.tc.ActAs(verifier)
	for range n {
		if err := s.tc.POST("/metrics", map[string]any{"project_id": id, "metric_type": mt, "value": value}); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() != http.StatusCreated {
			return fmt.Errorf("record metric: status %d: %s", s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
		}
	}
	return nil
}

func (s *ledgerSteps) metricSummaryShouldBe(metricType, project string, count, total int) error {
	if err := s.getMetric(metricType, project, "summary"); err != nil {
		return err
	}
	if err := s.expectNumber("count", count); err != nil {
		return err
	}
	return s.expectNumber("total_value", total)
}

func (s *ledgerSteps) metricAverageShouldBe(metricType, project string, avg int) error {
	if err := s.getMetric(metricType, project, "average"); err != nil {
		return err
	}
	return s.expectNumber("average", avg)
}

func (s *ledgerSteps) requestMetricAverage(metricType, project string) error {
	return s.getMetric(metricType, project, "average")
}

func (s *ledgerSteps) getMetric(metricType, project, view string) error {
	id, err := s.tc.Recall(project)
	if err != nil {
		return err
	}
	mt, ok := metricTypes[metricType]
	if !ok {
		return fmt.Errorf("unknown metric type %q", metricType)
	}
	return s.tc.GET(fmt.Sprintf("/metrics/projects/%d/types/%d/%s", id, mt, view))
}

// rememberCreated records the id of a 201 response under name.
func (s *ledgerSteps) rememberCreated(name string) error {
	if s.tc.GetLastResponseStatus() != http.StatusCreated {
		return fmt.Errorf("expected 201, got %d: %s", s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
	}
	var created struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &created); err != nil {
		return err
	}
	if created.ID == 0 {
		return fmt.Errorf("created record has no id: %s", s.tc.GetLastResponseBody())
	}
	s.tc.Remember(name, created.ID)
	return nil
}

func (s *ledgerSteps) expectNumber(field string, expected int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if n, ok := v.(float64); !ok || int(n) != expected {
		return fmt.Errorf("expected %s=%d, got %v", field, expected, v)
	}
	return nil
}
