package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/dto"
	apierrors "github.com/yukikurage/todo-api/internal/errors"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/middleware"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/services"
	"github.com/yukikurage/todo-api/internal/utils"
)

// priorityNone selects tasks without a priority in ?priority=
const priorityNone = "none"

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns one page of the current user's tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	page, err := utils.GetPaginationParams(c)
	if err != nil {
		apierrors.BadRequestWithDetails(c, err.Error(), gin.H{"params": []string{"limit", "offset"}})
		return
	}

	sort, err := parseTaskSort(c.Query("sort"))
	if err != nil {
		apierrors.BadRequestWithDetails(c, err.Error(), gin.H{"params": []string{"sort"}})
		return
	}

	filter := repository.TaskFilter{Phrase: c.Query("q")}
	for _, s := range queryList(c, "state") {
		filter.States = append(filter.States, models.TaskState(s))
	}
	for _, p := range queryList(c, "priority") {
		if p == priorityNone {
			filter.IncludeUnprioritized = true
			continue
		}
		filter.Priorities = append(filter.Priorities, models.TaskPriority(p))
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), services.ListTasksInput{
		UserID: userID,
		Filter: filter,
		Page:   page,
		Sort:   sort,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, total, page.Limit, page.Offset))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, taskID, ok := taskRoute(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := req.ToInput()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask partially updates a task; PUT and PATCH behave the same
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, taskID, ok := taskRoute(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	p, err := req.ToPatch()
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.Update(c.Request.Context(), userID, taskID, p); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, taskID, ok := taskRoute(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), userID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func taskRoute(c *gin.Context) (userID, taskID ident.ID, ok bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return userID, taskID, false
	}
	taskID, exists = middleware.GetTaskID(c)
	if !exists {
		apierrors.BadRequest(c, "Invalid task ID")
		return userID, taskID, false
	}
	return userID, taskID, true
}

// queryList accepts both ?k=a&k=b and ?k=a,b
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

var errInvalidSort = errors.New("sort must look like created_at, updated_at:desc or priority:desc,created_at:asc")

// parseTaskSort reads "key[:asc|desc][,key[:asc|desc]]". A second key is
// only allowed after priority, which has ties.
func parseTaskSort(raw string) (repository.TaskSort, error) {
	if strings.TrimSpace(raw) == "" {
		return repository.DefaultTaskSort, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > 2 {
		return repository.TaskSort{}, errInvalidSort
	}

	primary, err := parseSortTerm(parts[0])
	if err != nil {
		return repository.TaskSort{}, err
	}
	sort := repository.TaskSort{Primary: primary}

	if len(parts) == 2 {
		then, err := parseSortTerm(parts[1])
		if err != nil || primary.Key != repository.SortByPriority || then.Key == repository.SortByPriority {
			return repository.TaskSort{}, errInvalidSort
		}
		sort.Then = &then
	}

	return sort, nil
}

func parseSortTerm(raw string) (repository.SortTerm, error) {
	key, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")

	var term repository.SortTerm
	switch repository.SortKey(key) {
	case repository.SortByCreatedAt, repository.SortByUpdatedAt, repository.SortByPriority:
		term.Key = repository.SortKey(key)
	default:
		return term, errInvalidSort
	}

	switch dir {
	case "", "asc":
	case "desc":
		term.Desc = true
	default:
		return term, errInvalidSort
	}
	return term, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTaskForbidden):
		apierrors.Forbidden(c, "You do not have access to this task")
	default:
		apierrors.InternalError(c, err)
	}
}
