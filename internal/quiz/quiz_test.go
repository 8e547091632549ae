package quiz_test

import (
	"testing"

	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/quiz"
	"github.com/stretchr/testify/require"
)

func questions() []models.QuizQuestion {
	correct := []int{1, 2, 2, 0}
	qs := make([]models.QuizQuestion, len(correct))
	for i, c := range correct {
		qs[i] = models.QuizQuestion{Question: "Vraag", Options: []string{"a", "b", "c", "d"}, CorrectIndex: c}
	}
	return qs
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		selections []int
		want       quiz.Result
	}{
		{
			name:       "all correct",
			selections: []int{1, 2, 2, 0},
			want:       quiz.Result{Score: 4, Total: 4, Percent: 100, Tier: quiz.TierPerfect},
		},
		{
			name:       "three correct",
			selections: []int{1, 2, 2, 3},
			want:       quiz.Result{Score: 3, Total: 4, Percent: 75, Tier: quiz.TierGreat},
		},
		{
			name:       "two correct",
			selections: []int{1, 0, 2, 3},
			want:       quiz.Result{Score: 2, Total: 4, Percent: 50, Tier: quiz.TierGood},
		},
		{
			name:       "one correct",
			selections: []int{0, 0, 0, 0},
			want:       quiz.Result{Score: 1, Total: 4, Percent: 25, Tier: quiz.TierPractice},
		},
		{
			name:       "unanswered questions count as wrong",
			selections: []int{1},
			want:       quiz.Result{Score: 1, Total: 4, Percent: 25, Tier: quiz.TierPractice},
		},
		{
			name:       "extra selections are ignored",
			selections: []int{1, 2, 2, 0, 3, 3},
			want:       quiz.Result{Score: 4, Total: 4, Percent: 100, Tier: quiz.TierPerfect},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quiz.Grade(questions(), tt.selections)
			require.NoError(t, err)
			require.Equal(t, tt.want.Score, got.Score)
			require.Equal(t, tt.want.Total, got.Total)
			require.Equal(t, tt.want.Percent, got.Percent)
			require.Equal(t, tt.want.Tier, got.Tier)
			require.NotEmpty(t, got.Message)
		})
	}

	_, err := quiz.Grade(questions(), []int{4})
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
}

func TestTransition_RepeatSelectionIsNoop(t *testing.T) {
	qs := questions()
	s, err := quiz.Transition(qs, quiz.State{}, quiz.Start())
	require.NoError(t, err)
	require.Equal(t, quiz.PhaseAnswering, s.Phase)

	// Wrong first, then the right answer: only the first click counts.
	s, err = quiz.Transition(qs, s, quiz.Select(0))
	require.NoError(t, err)
	feedback := s
	s, err = quiz.Transition(qs, s, quiz.Select(1))
	require.NoError(t, err)
	require.Equal(t, feedback, s)
	require.Zero(t, s.Score)
	require.Equal(t, 0, s.Selections[0])
}

func TestTransition_IsPure(t *testing.T) {
	qs := questions()
	start, err := quiz.Transition(qs, quiz.State{}, quiz.Start())
	require.NoError(t, err)
	answered, err := quiz.Transition(qs, start, quiz.Select(1))
	require.NoError(t, err)

	require.Equal(t, quiz.Unanswered, start.Selections[0])
	require.Equal(t, 1, answered.Selections[0])
	require.Equal(t, 1, answered.Score)
}

func TestTransition_InvalidActions(t *testing.T) {
	qs := questions()
	_, err := quiz.Transition(qs, quiz.State{}, quiz.Select(0))
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
	_, err = quiz.Transition(qs, quiz.State{}, quiz.Next())
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
	_, err = quiz.Transition(nil, quiz.State{}, quiz.Start())
	require.ErrorIs(t, err, quiz.ErrInvalidAction)

	s, err := quiz.Transition(qs, quiz.State{}, quiz.Start())
	require.NoError(t, err)
	// The quiz can be started only once.
	_, err = quiz.Transition(qs, s, quiz.Start())
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
	// Moving on requires an answer.
	_, err = quiz.Transition(qs, s, quiz.Next())
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
}

func TestEngine(t *testing.T) {
	e := quiz.NewEngine(questions())
	_, err := e.Start()
	require.NoError(t, err)

	for i, option := range []int{1, 3, 2, 0} {
		require.Equal(t, "Vraag", e.Question().Question)
		_, ok := e.Result()
		require.False(t, ok)
		s, err := e.Select(option)
		require.NoError(t, err)
		require.Equal(t, quiz.PhaseFeedback, s.Phase)
		require.Equal(t, i, s.Current)
		_, err = e.Select(1)
		require.NoError(t, err)
		_, err = e.Next()
		require.NoError(t, err)
	}

	result, ok := e.Result()
	require.True(t, ok)
	require.Equal(t, 3, result.Score)
	require.Equal(t, 75, result.Percent)
	require.Equal(t, quiz.TierGreat, result.Tier)

	_, err = e.Start()
	require.ErrorIs(t, err, quiz.ErrInvalidAction)
}

func TestTierFor(t *testing.T) {
	require.Equal(t, quiz.TierPerfect, quiz.TierFor(100))
	require.Equal(t, quiz.TierGreat, quiz.TierFor(99))
	require.Equal(t, quiz.TierGreat, quiz.TierFor(75))
	require.Equal(t, quiz.TierGood, quiz.TierFor(74))
	require.Equal(t, quiz.TierGood, quiz.TierFor(50))
	require.Equal(t, quiz.TierPractice, quiz.TierFor(49))
	require.Equal(t, quiz.TierPractice, quiz.TierFor(0))
}
