package public

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/handler"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	"github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/plan"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Handler serves the unauthenticated patient-facing surface and doctor
// sign-up.
type Handler struct {
	doctors      *doctor.Service
	plans        *plan.Service
	availability *availability.Service
	booking      *booking.Service
}

func NewHandler(doctors *doctor.Service, plans *plan.Service, availability *availability.Service, booking *booking.Service) *Handler {
	return &Handler{
		doctors:      doctors,
		plans:        plans,
		availability: availability,
		booking:      booking,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.GET("/plans", h.ListPlans)

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id/slots", h.DaySlots)
		doctors.POST("/:id/appointments", h.Book)
	}
}

type registerResponse struct {
	Doctor       *model.Doctor       `json:"doctor"`
	Subscription *model.Subscription `json:"subscription"`
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	doc, trial, err := h.doctors.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, registerResponse{Doctor: doc, Subscription: trial})
}

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context(), false)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, plans)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.doctors.ListBookable(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) DaySlots(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, fmt.Errorf("%w: date is required", model.ErrInvalidInput))
		return
	}

	slots, err := h.availability.DaySlots(c.Request.Context(), id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"date": date, "slots": slots})
}

func (h *Handler) Book(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.BookAppointmentRequest
	if err := handler.BindJSON(c, &req, false); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.booking.Book(c.Request.Context(), booking.BookRequest{
		DoctorID: id,
		Patient: booking.PatientIdentity{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
			Notes: req.Notes,
		},
		Date:  req.Date,
		Time:  req.Time,
		Notes: req.Notes,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}
