package doctor

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	doctorsvc "github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/internal/service/patientfile"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Handler serves the signed-in doctor's own resources. The acting doctor
// always comes from the token, never from the path.
type Handler struct {
	doctors       *doctorsvc.Service
	subscriptions *subscription.Service
	entitlements  *entitlement.Service
	booking       *booking.Service
	files         *patientfile.Service
}

func NewHandler(
	doctors *doctorsvc.Service,
	subscriptions *subscription.Service,
	entitlements *entitlement.Service,
	booking *booking.Service,
	files *patientfile.Service,
) *Handler {
	return &Handler{
		doctors:       doctors,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		booking:       booking,
		files:         files,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("", h.Profile)
	r.GET("/entitlement", h.Entitlement)
	r.PUT("/working-hours", h.UpdateWorkingHours)

	subs := r.Group("/subscriptions")
	{
		subs.GET("", h.ListSubscriptions)
		subs.POST("", h.RequestSubscription)
		subs.POST("/renew", h.Renew)
		subs.DELETE("/:id", h.Withdraw)
	}

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/confirm", h.Confirm)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/complete", h.Complete)
	}

	files := r.Group("/files")
	{
		files.GET("", h.ListFiles)
		files.POST("", h.RecordFile)
		files.DELETE("/:id", h.DeleteFile)
	}
}

func (h *Handler) Profile(c *gin.Context) {
	doc, err := h.doctors.Get(c.Request.Context(), middleware.DoctorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) Entitlement(c *gin.Context) {
	ent, err := h.entitlements.ForDoctor(c.Request.Context(), middleware.DoctorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ent)
}

func (h *Handler) UpdateWorkingHours(c *gin.Context) {
	var hours model.WorkingHours
	if err := handler.BindJSON(c, &hours, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	doc, err := h.doctors.UpdateWorkingHours(c.Request.Context(), middleware.DoctorID(c), hours)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subscriptions.History(c.Request.Context(), middleware.DoctorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, subs)
}

func (h *Handler) RequestSubscription(c *gin.Context) {
	var req model.RequestSubscriptionRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sub, err := h.subscriptions.Request(c.Request.Context(), middleware.DoctorID(c), req.PlanID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, sub)
}

func (h *Handler) Renew(c *gin.Context) {
	sub, err := h.subscriptions.Renew(c.Request.Context(), middleware.DoctorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, sub)
}

func (h *Handler) Withdraw(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	sub, err := h.subscriptions.Withdraw(c.Request.Context(), middleware.DoctorID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sub)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{
		DoctorID: middleware.DoctorID(c),
		Status:   model.AppointmentStatus(c.Query("status")),
		Date:     c.Query("date"),
	}

	appointments, err := h.booking.ListForDoctor(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.booking.Get(c.Request.Context(), middleware.DoctorID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Confirm(c *gin.Context) {
	h.transition(c, h.booking.Confirm)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.booking.Cancel)
}

type transitionFunc func(ctx context.Context, doctorID, id uuid.UUID) (*model.Appointment, error)

func (h *Handler) transition(c *gin.Context, apply transitionFunc) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := apply(c.Request.Context(), middleware.DoctorID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Complete(c *gin.Context) {
	var req model.CompleteAppointmentRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.transition(c, func(ctx context.Context, doctorID, id uuid.UUID) (*model.Appointment, error) {
		return h.booking.Complete(ctx, doctorID, id, req.ActualPrice)
	})
}

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), middleware.DoctorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, files)
}

// RecordFile registers an already stored object against the doctor's
// storage quota.
func (h *Handler) RecordFile(c *gin.Context) {
	var req model.RecordFileRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	file, err := h.files.Record(c.Request.Context(), middleware.DoctorID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, file)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.files.Delete(c.Request.Context(), middleware.DoctorID(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}
