package tasks

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/quotex-api/internal/common"
)

// Enqueuer hands tasks to the queue. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AdminHandler lets operators trigger sweeps.
type AdminHandler struct {
	Queue   Enqueuer
	Sweeper *Sweeper
}

// Trigger handles POST /admin/sweeps/{kind}. With ?sync=true the sweep runs
// inline and its result is returned; otherwise it is queued.
func (h *AdminHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !Valid(kind) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown sweep", map[string]any{"kinds": Kinds()})
		return
	}
	sync, _ := strconv.ParseBool(r.URL.Query().Get("sync"))

	if sync || h.Queue == nil {
		if h.Sweeper == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sweeper not configured", nil)
			return
		}
		res, err := h.Sweeper.Run(r.Context(), kind)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": res})
		return
	}

	task, err := NewTask(kind, common.Actor(r.Context()), h.Sweeper.now())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	info, err := h.Queue.EnqueueContext(r.Context(), task)
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not enqueue sweep", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{
		"taskId": info.ID,
		"kind":   kind,
		"queue":  info.Queue,
	}})
}
