// Package quiz runs the multiple-choice comprehension quiz that follows a dialogue.
package quiz

import (
	"log/slog"
	"math"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
)

var ErrInvalidAction = errors.NewSentinel("invalid quiz action")

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAnswering
	PhaseFeedback
	PhaseResults
)

type ActionKind int

const (
	ActionStart ActionKind = iota
	ActionSelect
	ActionNext
)

type Action struct {
	Kind ActionKind
	// Option is the selected option index for ActionSelect.
	Option int
}

func Start() Action            { return Action{Kind: ActionStart, Option: 0} }
func Select(option int) Action { return Action{Kind: ActionSelect, Option: option} }
func Next() Action             { return Action{Kind: ActionNext, Option: 0} }

// Unanswered marks a question without a selection in [State.Selections].
const Unanswered = -1

// State is an immutable snapshot of a quiz. Transition never modifies the state it is given.
type State struct {
	Phase      Phase
	Current    int
	Selections []int
	Score      int
}

// Transition returns the state that follows s after a. Selecting again during feedback is a no-op.
func Transition(questions []models.QuizQuestion, s State, a Action) (State, error) {
	attrs := []slog.Attr{slog.Int("phase", int(s.Phase)), slog.Int("action", int(a.Kind))}
	switch a.Kind {
	case ActionStart:
		if s.Phase != PhaseNotStarted {
			return s, errors.Wrap(ErrInvalidAction, "quiz already started", attrs...)
		}
		if len(questions) == 0 {
			return s, errors.Wrap(ErrInvalidAction, "no questions", attrs...)
		}
		selections := make([]int, len(questions))
		for i := range selections {
			selections[i] = Unanswered
		}
		return State{Phase: PhaseAnswering, Current: 0, Selections: selections, Score: 0}, nil

	case ActionSelect:
		switch s.Phase {
		case PhaseFeedback:
			return s, nil
		case PhaseAnswering:
		default:
			return s, errors.Wrap(ErrInvalidAction, "not answering", attrs...)
		}
		q := questions[s.Current]
		if a.Option < 0 || a.Option >= len(q.Options) {
			return s, errors.Wrap(ErrInvalidAction, "option out of range",
				append(attrs, slog.Int("option", a.Option))...)
		}
		next := State{
			Phase:      PhaseFeedback,
			Current:    s.Current,
			Selections: append([]int(nil), s.Selections...),
			Score:      s.Score,
		}
		next.Selections[s.Current] = a.Option
		if a.Option == q.CorrectIndex {
			next.Score++
		}
		return next, nil

	case ActionNext:
		if s.Phase != PhaseFeedback {
			return s, errors.Wrap(ErrInvalidAction, "no answer to move on from", attrs...)
		}
		next := s
		if s.Current+1 < len(questions) {
			next.Phase = PhaseAnswering
			next.Current = s.Current + 1
		} else {
			next.Phase = PhaseResults
		}
		return next, nil
	}
	return s, errors.Wrap(ErrInvalidAction, "unknown action", attrs...)
}

type Tier string

const (
	TierPerfect  Tier = "perfect"
	TierGreat    Tier = "great"
	TierGood     Tier = "good"
	TierPractice Tier = "practice"
)

var tierMessages = map[Tier]string{ //nolint:gochecknoglobals // read-only table
	TierPerfect:  "Perfect! You understood everything.",
	TierGreat:    "Great job! You understood most of the conversation.",
	TierGood:     "Good effort! Listen once more to catch the details.",
	TierPractice: "Keep practising! Replay the conversation and read the transcript.",
}

type Result struct {
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

// Score summarizes s.
func Score(questions []models.QuizQuestion, s State) Result {
	total := len(questions)
	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(s.Score) / float64(total))) //nolint:mnd // percentage
	}
	tier := TierFor(percent)
	return Result{
		Score:   s.Score,
		Total:   total,
		Percent: percent,
		Tier:    tier,
		Message: tierMessages[tier],
	}
}

// TierFor buckets a percentage.
func TierFor(percent int) Tier {
	switch {
	case percent >= 100: //nolint:mnd // perfect score
		return TierPerfect
	case percent >= 75: //nolint:mnd // threshold
		return TierGreat
	case percent >= 50: //nolint:mnd // threshold
		return TierGood
	default:
		return TierPractice
	}
}

// Grade runs a whole quiz where selections are clicks in order. A selection that is out of range for the current
// question fails the grading.
func Grade(questions []models.QuizQuestion, selections []int) (Result, error) {
	s, err := Transition(questions, State{}, Start())
	if err != nil {
		return Result{}, err
	}
	for i, option := range selections {
		if s.Phase == PhaseResults {
			break
		}
		if s, err = Transition(questions, s, Select(option)); err != nil {
			return Result{}, errors.Wrap(err, "select", slog.Int("selection", i))
		}
		if s, err = Transition(questions, s, Next()); err != nil {
			return Result{}, errors.Wrap(err, "next", slog.Int("selection", i))
		}
	}
	return Score(questions, s), nil
}
