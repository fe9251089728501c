package transient

import "github.com/goliatone/go-transient/pkg/schema"

// link attaches an interceptor to every conf.LinkTo target. Writing a target
// recomputes the transient shadow slot from the incoming value and then lets
// the original value through unchanged. The slot is written before the
// target's later setters and cast run, so a write the target then rejects
// (a *schema.CastError, say) still leaves the recomputed slot in place.
func link(s *schema.Schema, conf Config) error {
	write := setter(conf)
	for _, target := range conf.LinkTo {
		st, err := s.Path(target)
		if err != nil {
			return &LinkError{Path: conf.Path, Target: target, Err: err}
		}
		st.Set(func(doc *schema.Document, value any) (any, error) {
			if err := write(doc, value); err != nil {
				return nil, err
			}
			return value, nil
		})
	}
	return nil
}
