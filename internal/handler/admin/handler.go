package admin

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/plan"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	plans         *plan.Service
	subscriptions *subscription.Service
	doctors       *doctor.Service
}

func NewHandler(plans *plan.Service, subscriptions *subscription.Service, doctors *doctor.Service) *Handler {
	return &Handler{
		plans:         plans,
		subscriptions: subscriptions,
		doctors:       doctors,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	plans := r.Group("/plans")
	{
		plans.GET("", h.ListPlans)
		plans.POST("", h.CreatePlan)
		plans.PUT("/:id", h.UpdatePlan)
		plans.POST("/:id/activate", h.setPlanActive(true))
		plans.POST("/:id/deactivate", h.setPlanActive(false))
	}

	subs := r.Group("/subscriptions")
	{
		subs.GET("/pending", h.ListPending)
		subs.POST("/:id/approve", h.ApproveSubscription)
		subs.POST("/:id/reject", h.RejectSubscription)
	}

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.POST("/:id/approve", h.doctorAction(h.doctors.Approve))
		doctors.POST("/:id/suspend", h.doctorAction(h.doctors.Suspend))
		doctors.POST("/:id/activate", h.doctorAction(h.doctors.Activate))
		doctors.DELETE("/:id", h.DeleteDoctor)
	}
}

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context(), true)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, plans)
}

func (h *Handler) CreatePlan(c *gin.Context) {
	var req model.CreatePlanRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.plans.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) UpdatePlan(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePlanRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.plans.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) setPlanActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := handler.ParamUUID(c, "id")
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		p, err := h.plans.SetActive(c.Request.Context(), id, active)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, p)
	}
}

func (h *Handler) ListPending(c *gin.Context) {
	subs, err := h.subscriptions.ListPending(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subs)
}

// ApproveSubscription activates a pending request. duration_days is optional
// and falls back to the configured approval period.
func (h *Handler) ApproveSubscription(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.ApproveSubscriptionRequest
	if err := handler.BindJSON(c, &req, true); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sub, err := h.subscriptions.Approve(c.Request.Context(), id, req.DurationDays)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sub)
}

func (h *Handler) RejectSubscription(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sub, err := h.subscriptions.Reject(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sub)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctors.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	doc, err := h.doctors.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) doctorAction(apply func(ctx context.Context, id uuid.UUID) (*model.Doctor, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := handler.ParamUUID(c, "id")
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		doc, err := apply(c.Request.Context(), id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, doc)
	}
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.doctors.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}
