package service

import (
	"fmt"
	"time"
)

// LivenessTimeoutError reports that a started service process did not connect
// to the rendezvous socket within the configured timeout. The process is
// deliberately left running: a slow-starting service should not be killed
// just because one activation attempt gave up on it.
type LivenessTimeoutError struct {
	Timeout time.Duration
}

func (e *LivenessTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for service to become live after %s", e.Timeout)
}
