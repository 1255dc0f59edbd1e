package videowriter

import "github.com/user/mem2vid/pkg/ports"

// release is one registered cleanup action.
type release struct {
	name string
	fn   func() error
	// report marks the release whose error is returned from unwind.
	report bool
}

// releaseStack runs registered releases in reverse order of registration.
type releaseStack struct {
	entries []release
}

// push registers a release that cannot fail.
func (s *releaseStack) push(name string, fn func()) {
	s.entries = append(s.entries, release{name: name, fn: func() error {
		fn()
		return nil
	}})
}

// pushReported registers a release whose error is surfaced by unwind.
func (s *releaseStack) pushReported(name string, fn func() error) {
	s.entries = append(s.entries, release{name: name, fn: fn, report: true})
}

// names returns the registered release names in registration order.
func (s *releaseStack) names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// unwind runs every release exactly once, newest first, and empties the
// stack. Failures are logged and never stop the unwind.
func (s *releaseStack) unwind(log ports.Logger) error {
	var reported error
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		err := e.fn()
		if err == nil {
			log.Debug("Released %s", e.name)
			continue
		}
		log.Warn("Failed to release %s: %v", e.name, err)
		if e.report && reported == nil {
			reported = err
		}
	}
	s.entries = nil
	return reported
}
