package main

import (
	"net/http"

	"github.com/myrjola/taalquest/internal/errors"
	"github.com/myrjola/taalquest/internal/models"
	"github.com/myrjola/taalquest/internal/quiz"
)

type gradeQuizRequest struct {
	Questions  []models.QuizQuestion `json:"questions"`
	Selections []int                 `json:"selections"`
}

// gradeQuiz runs the selections through the quiz and responds with the result.
func (app *application) gradeQuiz(w http.ResponseWriter, r *http.Request) {
	var req gradeQuizRequest
	if err := app.readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if len(req.Questions) == 0 {
		app.clientError(w, r, http.StatusBadRequest, "Questions are required.")
		return
	}
	result, err := quiz.Grade(req.Questions, req.Selections)
	if errors.Is(err, quiz.ErrInvalidAction) {
		app.clientError(w, r, http.StatusBadRequest, "Invalid selections.")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}
