package classifier

import (
	"context"

	"previdas_backend/internal/leads/domain"
	"previdas_backend/platform/logger"
)

// Remote is the oracle capability. Implementations must return an error on
// any failure so the fallback can take over; they never return a partial
// signal.
type Remote interface {
	Classify(ctx context.Context, text string, prior *domain.Contact) (Signal, error)
}

// Classifier fronts the oracle with the heuristic as fallback of record.
// Callers always get a signal; oracle failures are absorbed, logged, and
// never propagated.
type Classifier struct {
	remote    Remote
	heuristic *Heuristic
	log       *logger.Logger
}

// New creates the failover classifier. remote may be nil, in which case the
// heuristic handles everything.
func New(remote Remote, heuristic *Heuristic, log *logger.Logger) *Classifier {
	return &Classifier{remote: remote, heuristic: heuristic, log: log}
}

// Classify produces a signal for the message, preferring the oracle.
func (c *Classifier) Classify(ctx context.Context, text string, prior *domain.Contact) Signal {
	if c.remote != nil {
		sig, err := c.remote.Classify(ctx, text, prior)
		if err == nil {
			return sig
		}
		c.log.Warn("classifier oracle unavailable, using heuristic", "error", err)
	}
	return c.heuristic.Classify(text, prior)
}
