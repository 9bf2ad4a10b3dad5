package poll

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	GetLastResponseStatus() int
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers message queue step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &pollSteps{tc: tc}

	ctx.Step(`^I drain the message queue$`, steps.drain)
	ctx.Step(`^I request the next message$`, steps.request)
}

type pollSteps struct {
	tc TestContext
}

// drain acknowledges messages until the registry reports an empty queue.
func (s *pollSteps) drain(ctx context.Context) error {
	for range 100 {
		if err := s.tc.GET("/v1/poll", nil); err != nil {
			return err
		}
		switch s.tc.GetLastResponseStatus() {
		case 204:
			return nil
		case 200:
		default:
			return fmt.Errorf("poll answered %d", s.tc.GetLastResponseStatus())
		}
		id, err := s.tc.GetResponseField("id")
		if err != nil {
			return err
		}
		if err := s.tc.DELETE(fmt.Sprintf("/v1/poll/%v", id)); err != nil {
			return err
		}
	}
	return fmt.Errorf("message queue did not drain")
}

func (s *pollSteps) request(ctx context.Context) error {
	return s.tc.GET("/v1/poll", nil)
}
