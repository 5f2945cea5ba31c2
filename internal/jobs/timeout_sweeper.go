package jobs

import "context"

// Sweeper is the timeout-sweep slice of the help request service.
type Sweeper interface {
	SweepTimeouts(ctx context.Context) (int, error)
}

// TimeoutSweeper closes pending help requests nobody answered in time.
type TimeoutSweeper struct {
	sweeper Sweeper
}

func NewTimeoutSweeper(sweeper Sweeper) *TimeoutSweeper {
	return &TimeoutSweeper{sweeper: sweeper}
}

func (s *TimeoutSweeper) Name() string {
	return "timeout-sweeper"
}

func (s *TimeoutSweeper) Process(ctx context.Context) error {
	_, err := s.sweeper.SweepTimeouts(ctx)
	return err
}
