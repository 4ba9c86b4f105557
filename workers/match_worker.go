// workers/match_worker.go
package workers

import (
	"context"
	"log"

	"club-career-system/models"
)

// TeamRatings are the precomputed line strengths handed to the resolver so
// a worker never has to touch the store.
type TeamRatings struct {
	Attack   float64 `json:"attack"`
	Midfield float64 `json:"midfield"`
	Defense  float64 `json:"defense"`
	Overall  float64 `json:"overall"`
}

// SimulateMatch is one fully-materialized resolution request. Everything a
// worker needs is carried in the message; workers share no mutable state.
type SimulateMatch struct {
	RequestID   string
	MatchID     string
	SaveID      string
	HomeTeamID  string
	AwayTeamID  string
	HomeRatings TeamRatings
	AwayRatings TeamRatings
	HomePlayers []models.Player
	AwayPlayers []models.Player
	Pressure    float64
	Foreground  bool
}

// MatchComplete is the worker's reply for a single request.
type MatchComplete struct {
	RequestID string
	MatchID   string
	Result    models.MatchResult
}

// SimulateBatch groups a day's background matches into one submission.
type SimulateBatch struct {
	SaveID  string
	Matches []SimulateMatch
}

// BatchComplete carries every result of a batch, in completion order.
type BatchComplete struct {
	SaveID  string
	Results []MatchComplete
}

// Resolver turns a request into a result. Pure: no store access, safe to
// call from any worker.
type Resolver interface {
	Resolve(req SimulateMatch) models.MatchResult
}

type poolJob struct {
	req   SimulateMatch
	reply chan<- MatchComplete
}

// MatchPool is a bounded set of simulation workers fed over a single jobs
// channel. Callers submit work and read replies; the pool owns no results.
type MatchPool struct {
	resolver Resolver
	jobs     chan poolJob
	size     int
}

func NewMatchPool(size int, resolver Resolver) *MatchPool {
	if size < 1 {
		size = 1
	}
	return &MatchPool{
		resolver: resolver,
		jobs:     make(chan poolJob, size*4),
		size:     size,
	}
}

// Start launches the workers. They drain jobs until ctx is cancelled.
func (p *MatchPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.run(ctx, i)
	}
	log.Printf("[SIM] ⚙️  %d match workers started", p.size)
}

func (p *MatchPool) run(ctx context.Context, id int) {
	for {
		select {
		case job := <-p.jobs:
			job.reply <- MatchComplete{
				RequestID: job.req.RequestID,
				MatchID:   job.req.MatchID,
				Result:    p.resolver.Resolve(job.req),
			}
		case <-ctx.Done():
			log.Printf("[SIM] ⏹️  match worker %d stopped", id)
			return
		}
	}
}

// Submit queues one request and returns the reply channel (buffered, so a
// worker never blocks on a caller that has moved on).
func (p *MatchPool) Submit(req SimulateMatch) <-chan MatchComplete {
	reply := make(chan MatchComplete, 1)
	p.jobs <- poolJob{req: req, reply: reply}
	return reply
}

// SubmitBatch fans a batch out to the workers and returns a channel that
// receives the assembled BatchComplete once every match has resolved. The
// caller is never blocked on batch completion.
func (p *MatchPool) SubmitBatch(batch SimulateBatch) <-chan BatchComplete {
	done := make(chan BatchComplete, 1)

	replies := make(chan MatchComplete, len(batch.Matches))
	for _, req := range batch.Matches {
		p.jobs <- poolJob{req: req, reply: replies}
	}

	go func() {
		out := BatchComplete{SaveID: batch.SaveID}
		for i := 0; i < len(batch.Matches); i++ {
			out.Results = append(out.Results, <-replies)
		}
		done <- out
	}()

	return done
}
