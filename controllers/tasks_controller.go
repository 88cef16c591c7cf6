package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/solquest/config"
	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/models"
	"github.com/cppla/solquest/utils"
	"github.com/cppla/solquest/view"
)

// TasksController renders the task panel and drives completion attempts.
type TasksController struct {
	orch    *engine.Orchestrator
	backend engine.Backend
}

// NewTasksController creates a TasksController.
func NewTasksController(orch *engine.Orchestrator, backend engine.Backend) *TasksController {
	return &TasksController{orch: orch, backend: backend}
}

// List renders the task list against the cached user record. Works logged out:
// the view is then rendered with nothing clickable.
func (t *TasksController) List(ctx *gin.Context) {
	rec := t.backend.CurrentUserData()
	utils.Success(ctx, view.TaskList(config.Get().Tasks, rec, time.Now()))
}

// Complete submits one task-completion attempt.
func (t *TasksController) Complete(ctx *gin.Context) {
	taskID := ctx.Param("id")
	task, ok := models.FindTask(config.Get().Tasks, taskID)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "unknown task")
		return
	}

	attempt, err := t.orch.Complete(ctx.Request.Context(), task)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTaskInert):
			utils.Error(ctx, http.StatusBadRequest, 40010, "task has no target")
		case errors.Is(err, engine.ErrNotConnected):
			utils.Error(ctx, http.StatusUnauthorized, 40104, "wallet not connected")
		case errors.Is(err, engine.ErrAttemptInFlight):
			utils.Error(ctx, http.StatusConflict, 40910, "task attempt already in flight")
		default:
			// The attempt reverted to idle; surface its state with the error.
			utils.Respond(ctx, http.StatusBadGateway, 50210, err.Error(), attempt)
		}
		return
	}

	utils.Success(ctx, attempt)
}

// Attempts returns the attempt registry snapshot.
func (t *TasksController) Attempts(ctx *gin.Context) {
	utils.Success(ctx, t.orch.Attempts())
}
