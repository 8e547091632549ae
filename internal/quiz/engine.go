package quiz

import (
	"sync"

	"github.com/myrjola/taalquest/internal/models"
)

// Engine holds the state of one quiz for interactive front ends.
type Engine struct {
	mu        sync.Mutex
	questions []models.QuizQuestion
	state     State
}

func NewEngine(questions []models.QuizQuestion) *Engine {
	return &Engine{
		mu:        sync.Mutex{},
		questions: questions,
		state:     State{Phase: PhaseNotStarted, Current: 0, Selections: nil, Score: 0},
	}
}

func (e *Engine) apply(a Action) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := Transition(e.questions, e.state, a)
	if err != nil {
		return e.state, err
	}
	e.state = next
	return next, nil
}

func (e *Engine) Start() (State, error) {
	return e.apply(Start())
}

// Select answers the current question. Only the first selection of a question counts.
func (e *Engine) Select(option int) (State, error) {
	return e.apply(Select(option))
}

func (e *Engine) Next() (State, error) {
	return e.apply(Next())
}

// Question returns the current question.
func (e *Engine) Question() models.QuizQuestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions[e.state.Current]
}

// Result returns the summary once every question has been answered.
func (e *Engine) Result() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != PhaseResults {
		return Result{}, false
	}
	return Score(e.questions, e.state), true
}
