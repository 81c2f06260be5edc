package agent

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"qlearn/internal/model"
)

type TrainResult struct {
	Episodes []model.EpisodeRecord
}

// TotalSteps sums steps across all episodes.
func (r TrainResult) TotalSteps() int {
	total := 0
	for _, ep := range r.Episodes {
		total += ep.Steps
	}
	return total
}

// Train runs numEpisodes episodes, updating the table after every step. Episodes end
// on termination or truncation; only termination zeroes the bootstrap term.
// Environment errors are returned as-is (wrapped) and end training.
func (a *Agent[S]) Train(ctx context.Context, numEpisodes int) (TrainResult, error) {
	if numEpisodes <= 0 {
		return TrainResult{}, fmt.Errorf("%w: episodes must be > 0, got %d", ErrInvalidArgument, numEpisodes)
	}

	result := TrainResult{Episodes: make([]model.EpisodeRecord, 0, numEpisodes)}
	for episode := 1; episode <= numEpisodes; episode++ {
		if err := ctx.Err(); err != nil {
			a.phase = PhaseReady
			return result, fmt.Errorf("training stopped after %d episodes: %w", len(result.Episodes), err)
		}
		record, err := a.runTrainingEpisode(ctx, episode)
		if err != nil {
			a.phase = PhaseReady
			return result, err
		}
		result.Episodes = append(result.Episodes, record)
		a.log.WithFields(logrus.Fields{
			"episode":    record.Episode,
			"steps":      record.Steps,
			"return":     record.Return,
			"terminated": record.Terminated,
			"truncated":  record.Truncated,
		}).Debug("episode complete")
	}

	a.log.WithFields(logrus.Fields{
		"episodes": numEpisodes,
		"steps":    result.TotalSteps(),
		"states":   a.table.Len(),
	}).Info("training complete")
	return result, nil
}

func (a *Agent[S]) runTrainingEpisode(ctx context.Context, episode int) (model.EpisodeRecord, error) {
	state, err := a.env.Reset(ctx)
	if err != nil {
		return model.EpisodeRecord{}, fmt.Errorf("episode %d: reset: %w", episode, err)
	}
	a.phase = PhaseStepping

	record := model.EpisodeRecord{Episode: episode}
	sumAbsError := 0.0
	for a.phase == PhaseStepping {
		if err := ctx.Err(); err != nil {
			return record, fmt.Errorf("episode %d: step %d: %w", episode, record.Steps+1, err)
		}
		action := a.ChooseAction(state)
		step, err := a.env.Step(ctx, action)
		if err != nil {
			return record, fmt.Errorf("episode %d: step %d: %w", episode, record.Steps+1, err)
		}

		tdError, err := a.Update(Transition[S]{
			State:      state,
			Action:     action,
			Reward:     step.Reward,
			Next:       step.State,
			Terminated: step.Terminated,
		})
		if err != nil {
			return record, fmt.Errorf("episode %d: update: %w", episode, err)
		}

		record.Steps++
		record.Return += step.Reward
		sumAbsError += math.Abs(tdError)
		state = step.State

		if step.Done() {
			record.Terminated = step.Terminated
			record.Truncated = step.Truncated && !step.Terminated
			a.phase = PhaseEpisodeDone
		}
	}

	record.MeanAbsTDError = sumAbsError / float64(record.Steps)
	a.phase = PhaseReady
	return record, nil
}

type EvalMode string

const (
	EvalGreedy EvalMode = "greedy"
	EvalRandom EvalMode = "random"
)

// Evaluate plays episodes without learning. Greedy mode follows the table without
// materializing unseen states; random mode uses the environment's own action sampler
// as a baseline.
func (a *Agent[S]) Evaluate(ctx context.Context, episodes int, mode EvalMode) ([]model.EpisodeRecord, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("%w: episodes must be > 0, got %d", ErrInvalidArgument, episodes)
	}
	var choose func(S) int
	switch mode {
	case "", EvalGreedy:
		choose = a.table.BestAction
	case EvalRandom:
		choose = func(S) int { return a.env.SampleAction() }
	default:
		return nil, fmt.Errorf("%w: unsupported evaluation mode %q", ErrInvalidArgument, mode)
	}

	records := make([]model.EpisodeRecord, 0, episodes)
	for episode := 1; episode <= episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return records, fmt.Errorf("evaluation stopped after %d episodes: %w", len(records), err)
		}
		state, err := a.env.Reset(ctx)
		if err != nil {
			return records, fmt.Errorf("evaluation episode %d: reset: %w", episode, err)
		}
		record := model.EpisodeRecord{Episode: episode}
		for {
			if err := ctx.Err(); err != nil {
				return records, fmt.Errorf("evaluation episode %d: step %d: %w", episode, record.Steps+1, err)
			}
			step, err := a.env.Step(ctx, choose(state))
			if err != nil {
				return records, fmt.Errorf("evaluation episode %d: step %d: %w", episode, record.Steps+1, err)
			}
			record.Steps++
			record.Return += step.Reward
			state = step.State
			if step.Done() {
				record.Terminated = step.Terminated
				record.Truncated = step.Truncated && !step.Terminated
				break
			}
		}
		records = append(records, record)
	}
	return records, nil
}
