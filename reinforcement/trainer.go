package reinforcement

import (
	"context"
	"errors"
	"fmt"

	"qmaze/grid_world"
	"qmaze/maze"
)

// ErrNegativeEpisodes is reported when a session is asked for fewer than zero episodes.
var ErrNegativeEpisodes = errors.New("episode count must be non-negative")

// EpisodeRecord summarizes one finished episode.
type EpisodeRecord struct {
	// Episode is the 1-based index of the episode within its trainer.
	Episode int
	// TotalReward is the undiscounted sum of rewards.
	TotalReward float64
	Steps       int
	// ExplorationRate is epsilon after the episode's decay.
	ExplorationRate float64
	// Success reports whether the goal was reached before the step budget ran out.
	Success bool
}

// EpisodeResult is what a training sequence yields per episode. The table and path
// are owned by the receiver.
type EpisodeResult struct {
	EpisodeRecord
	QTable   *QTable
	BestPath []maze.Position
}

// ProgressFunc is a callback by which the training method can lend progress details,
// while exercising some level of control over its cancellation to prevent blocking.
// ProgressFunc is synchronous/blocking and should be defined to complete quickly.
type ProgressFunc func(context.Context, *EpisodeResult)

// Trainer drives a learner through episodes of an environment and keeps the history.
type Trainer struct {
	env     Environment
	agent   *QLearner
	history []EpisodeRecord
}

func NewTrainer(env Environment, agent *QLearner) *Trainer {
	return &Trainer{
		env:   env,
		agent: agent,
	}
}

// Agent returns the trainer's learner.
func (tr *Trainer) Agent() *QLearner { return tr.agent }

// History returns a copy of the records of every episode run so far.
func (tr *Trainer) History() []EpisodeRecord {
	out := make([]EpisodeRecord, len(tr.history))
	copy(out, tr.history)
	return out
}

// Run returns a cursor over the next n episodes. Nothing runs until Next is called,
// and each call runs exactly one episode.
func (tr *Trainer) Run(n int) *Session {
	s := &Session{trainer: tr, remaining: n}
	if n < 0 {
		s.err = fmt.Errorf("%w: %d", ErrNegativeEpisodes, n)
		s.remaining = 0
	}
	return s
}

// Train runs n episodes to completion, checking ctx between episodes and calling
// progressFn, if non-nil, after each one.
func (tr *Trainer) Train(ctx context.Context, n int, progressFn ProgressFunc) error {
	session := tr.Run(n)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, ok := session.Next()
		if !ok {
			return session.Err()
		}
		if progressFn != nil {
			progressFn(ctx, result)
		}
	}
}

// episode runs a single episode: reset, then select, step and update until done.
func (tr *Trainer) episode() (*EpisodeResult, error) {
	state := tr.env.Reset()
	record := EpisodeRecord{Episode: len(tr.history) + 1}

	for {
		action := tr.agent.SelectAction(state)
		t, err := tr.env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", record.Episode, err)
		}
		tr.agent.Update(state, action, t.Reward, t.Successor, t.Done)
		record.TotalReward += t.Reward
		record.Steps++
		state = t.Successor
		if t.Done {
			record.Success = t.Outcome == grid_world.Success
			break
		}
	}

	tr.agent.DecayExploration()
	record.ExplorationRate = tr.agent.ExplorationRate()
	tr.history = append(tr.history, record)

	path, err := tr.agent.BestPath(tr.env)
	if err != nil {
		return nil, fmt.Errorf("episode %d best path: %w", record.Episode, err)
	}
	return &EpisodeResult{
		EpisodeRecord: record,
		QTable:        tr.agent.QTable(),
		BestPath:      path,
	}, nil
}

// Session is a single-pass cursor over a fixed number of training episodes.
type Session struct {
	trainer   *Trainer
	remaining int
	err       error
}

// Next runs one episode and returns its result. It returns false once the session is
// exhausted or has failed, and keeps returning false thereafter.
func (s *Session) Next() (*EpisodeResult, bool) {
	if s.err != nil || s.remaining == 0 {
		return nil, false
	}
	result, err := s.trainer.episode()
	if err != nil {
		s.err = err
		s.remaining = 0
		return nil, false
	}
	s.remaining--
	return result, true
}

// Err returns the error that ended the session, if any.
func (s *Session) Err() error { return s.err }

// Remaining is the number of episodes not yet run.
func (s *Session) Remaining() int { return s.remaining }
