package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/microtask/taskhub/internal/core/domain"
)

// TaskAPI implements ports.TaskBackend.
type TaskAPI struct {
	gw *Gateway
}

func NewTaskAPI(gw *Gateway) *TaskAPI {
	return &TaskAPI{gw: gw}
}

func (a *TaskAPI) list(ctx context.Context, path string) ([]domain.Task, error) {
	var out []domain.Task
	if err := a.gw.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *TaskAPI) Available(ctx context.Context) ([]domain.Task, error) {
	return a.list(ctx, "/tasks")
}

func (a *TaskAPI) All(ctx context.Context) ([]domain.Task, error) {
	return a.list(ctx, "/tasks/all")
}

func (a *TaskAPI) Mine(ctx context.Context) ([]domain.Task, error) {
	return a.list(ctx, "/tasks/buyer")
}

func (a *TaskAPI) Get(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	if err := a.gw.Do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *TaskAPI) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	var out domain.Task
	if err := a.gw.Do(ctx, http.MethodPost, "/tasks", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *TaskAPI) Update(ctx context.Context, id string, in domain.TaskUpdate) error {
	return a.gw.Do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), in, nil)
}

func (a *TaskAPI) Delete(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// SubmissionAPI implements ports.SubmissionBackend.
type SubmissionAPI struct {
	gw *Gateway
}

func NewSubmissionAPI(gw *Gateway) *SubmissionAPI {
	return &SubmissionAPI{gw: gw}
}

type submitRequest struct {
	TaskID            string `json:"taskId"`
	SubmissionDetails string `json:"submissionDetails"`
}

func (a *SubmissionAPI) Submit(ctx context.Context, taskID, details string) (*domain.Submission, error) {
	var out domain.Submission
	body := submitRequest{TaskID: taskID, SubmissionDetails: details}
	if err := a.gw.Do(ctx, http.MethodPost, "/submissions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *SubmissionAPI) WorkerPage(ctx context.Context, page, limit int) (*domain.SubmissionPage, error) {
	var out domain.SubmissionPage
	err := a.gw.Do(ctx, http.MethodGet, "/submissions/worker", nil, &out,
		WithQuery("page", strconv.Itoa(page)),
		WithQuery("limit", strconv.Itoa(limit)),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *SubmissionAPI) WorkerApproved(ctx context.Context) ([]domain.Submission, error) {
	var out []domain.Submission
	if err := a.gw.Do(ctx, http.MethodGet, "/submissions/worker/approved", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SubmissionAPI) ForBuyer(ctx context.Context) ([]domain.Submission, error) {
	var out []domain.Submission
	if err := a.gw.Do(ctx, http.MethodGet, "/submissions/buyer", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SubmissionAPI) Approve(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodPatch, "/submissions/"+url.PathEscape(id)+"/approve", nil, nil)
}

func (a *SubmissionAPI) Reject(ctx context.Context, id string) error {
	return a.gw.Do(ctx, http.MethodPatch, "/submissions/"+url.PathEscape(id)+"/reject", nil, nil)
}
