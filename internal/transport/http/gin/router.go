package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nexvent/nexvent/internal/auth"
	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/service"
	"github.com/nexvent/nexvent/internal/service/billing"
	"github.com/nexvent/nexvent/internal/service/booking"
	"github.com/nexvent/nexvent/internal/service/catalog"
	"github.com/nexvent/nexvent/internal/service/identity"
	"github.com/nexvent/nexvent/internal/service/payment"
)

func NewRouter(
	svcs *service.Services,
	tokens *auth.Manager,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), MetricsMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := AuthMiddleware(tokens)
	api := r.Group("/api")
	{
		api.POST("/auth/register", handleRegister(svcs))
		api.POST("/auth/login", handleLogin(svcs))

		api.GET("/users/profile", authed, handleGetProfile(svcs))
		api.PUT("/users/profile", authed, handleUpdateProfile(svcs))

		api.GET("/events", handleListEvents(svcs))
		api.POST("/events", authed, handleCreateEvent(svcs))
		api.GET("/events/my-events", authed, handleListOwnEvents(svcs))
		api.PATCH("/events/:id/status", authed, handleSetEventStatus(svcs))

		api.POST("/bookings", authed, handleCreateBooking(svcs))
		api.GET("/bookings/my-bookings", authed, handleListMyBookings(svcs))
		api.GET("/bookings/:id", authed, handleGetBooking(svcs))

		api.POST("/payments", authed, handleInitiatePayment(svcs))
		api.GET("/payments/:id", authed, handleGetPayment(svcs))
		api.GET("/payments/:id/bill", authed, handleGetBill(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Register a new user
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} AuthResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "email already registered"
// @Router   /api/auth/register [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		u, token, err := svcs.Identity.Register(c.Request.Context(), identity.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Mobile:   req.Mobile,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: u})
	}
}

// @Summary  Log in
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} AuthResponse
// @Failure  400 {object} ErrorResponse "invalid email or password"
// @Router   /api/auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		u, token, err := svcs.Identity.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, AuthResponse{Token: token, User: u})
	}
}

// @Summary  Get own profile
// @Security BearerAuth
// @Success  200 {object} domain.User
// @Router   /api/users/profile [get]
func handleGetProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svcs.Identity.Profile(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Update own profile
// @Security BearerAuth
// @Accept   json
// @Accept   mpfd
// @Success  200 {object} domain.User
// @Router   /api/users/profile [put]
func handleUpdateProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateProfileRequest

		if isMultipart(c) {
			req.Name = c.PostForm("name")
			req.Mobile = c.PostForm("mobile")
			if file, err := c.FormFile("image"); err == nil {
				req.ImageURL = imageRef(file)
			}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		u, err := svcs.Identity.UpdateProfile(
			c.Request.Context(), currentUserID(c),
			req.Name, req.Mobile, req.ImageURL,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, u)
	}
}

// @Summary  List events
// @Param    status   query  string  false "draft|published (default published)"
// @Param    category query  string  false "workshop|concert|sports|hackathon|other"
// @Success  200 {array} domain.EventWithTicketTypes
// @Router   /api/events [get]
func handleListEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Catalog.List(
			c.Request.Context(),
			domain.EventStatus(c.Query("status")),
			domain.EventCategory(c.Query("category")),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// @Summary  Create event with ticket types
// @Security BearerAuth
// @Accept   json
// @Accept   mpfd
// @Param    req body  CreateEventRequest true "payload; multipart sends ticketTypes as a JSON field"
// @Success  201 {object} CreateEventResponse
// @Failure  400 {object} ErrorResponse
// @Router   /api/events [post]
func handleCreateEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest

		if isMultipart(c) {
			if !bindEventForm(c, &req) {
				return
			}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		in, ok := toCreateEventInput(c, req)
		if !ok {
			return
		}

		e, err := svcs.Catalog.CreateEvent(c.Request.Context(), currentUserID(c), in)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateEventResponse{EventID: e.ID, Event: e})
	}
}

// @Summary  List own events
// @Security BearerAuth
// @Param    status query  string  false "draft|published"
// @Success  200 {array} domain.EventWithTicketTypes
// @Router   /api/events/my-events [get]
func handleListOwnEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svcs.Catalog.ListOwn(
			c.Request.Context(),
			currentUserID(c),
			domain.EventStatus(c.Query("status")),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// @Summary  Publish or unpublish an event
// @Security BearerAuth
// @Param    id  path  int  true  "Event ID"
// @Param    req body  SetEventStatusRequest true "payload"
// @Success  200 {object} domain.Event
// @Failure  404 {object} ErrorResponse
// @Router   /api/events/{id}/status [patch]
func handleSetEventStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SetEventStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		e, err := svcs.Catalog.SetStatus(
			c.Request.Context(), eventID, currentUserID(c),
			domain.EventStatus(req.Status),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// @Summary  Book tickets
// @Security BearerAuth
// @Param    req body  CreateBookingRequest true "payload"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse "outside sale window"
// @Failure  404 {object} ErrorResponse "ticket type not found"
// @Failure  409 {object} ErrorResponse "sold out"
// @Router   /api/bookings [post]
func handleCreateBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		b, err := svcs.Booking.Create(c.Request.Context(), currentUserID(c), booking.CreateInput{
			EventID:      req.EventID,
			TicketTypeID: req.TicketTypeID,
			Quantity:     req.Quantity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, CreateBookingResponse{
			BookingID:   b.ID.String(),
			TotalAmount: b.TotalAmount,
			Status:      string(b.Status),
		})
	}
}

// @Summary  List own bookings
// @Security BearerAuth
// @Success  200 {array} domain.BookingWithDetails
// @Router   /api/bookings/my-bookings [get]
func handleListMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := svcs.Booking.ListMine(c.Request.Context(), currentUserID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bookings)
	}
}

// @Summary  Get a booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} domain.BookingWithDetails
// @Failure  404 {object} ErrorResponse
// @Router   /api/bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		b, err := svcs.Booking.Get(c.Request.Context(), currentUserID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Initiate payment for a booking
// @Security BearerAuth
// @Param    req body  InitiatePaymentRequest true "payload"
// @Success  201 {object} InitiatePaymentResponse
// @Failure  400 {object} ErrorResponse "booking not payable / bad method details"
// @Failure  404 {object} ErrorResponse "booking not found"
// @Failure  409 {object} ErrorResponse "payment already in progress"
// @Router   /api/payments [post]
func handleInitiatePayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		bookingID, err := uuid.Parse(req.BookingID)
		if err != nil {
			badRequest(c, "invalid bookingId")
			return
		}

		p, err := svcs.Payment.Initiate(c.Request.Context(), currentUserID(c), payment.InitiateInput{
			BookingID:  bookingID,
			Method:     domain.PaymentMethod(req.PaymentMethod),
			CardNumber: req.CardNumber,
			UpiID:      req.UpiID,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, InitiatePaymentResponse{
			PaymentID:     p.ID.String(),
			Amount:        p.Amount,
			PaymentMethod: string(p.PaymentMethod),
			PaymentStatus: string(p.PaymentStatus),
		})
	}
}

// @Summary  Get a payment with its booking chain
// @Security BearerAuth
// @Param    id  path  string  true  "Payment ID (uuid)"
// @Success  200 {object} domain.PaymentWithBooking
// @Failure  404 {object} ErrorResponse
// @Router   /api/payments/{id} [get]
func handleGetPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		p, err := svcs.Payment.Get(c.Request.Context(), currentUserID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Download the HTML bill for a payment
// @Security BearerAuth
// @Param    id  path  string  true  "Payment ID (uuid)"
// @Produce  html
// @Success  200 {string} string
// @Failure  404 {object} ErrorResponse
// @Router   /api/payments/{id}/bill [get]
func handleGetBill(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		html, err := svcs.Billing.Render(c.Request.Context(), currentUserID(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="bill-`+id.String()+`.html"`)
		c.Data(http.StatusOK, "text/html; charset=utf-8", html)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// imageRef derives the stored reference for an uploaded image. Blob storage is
// out of scope; only the reference travels with the record.
func imageRef(file *multipart.FileHeader) string {
	return "/uploads/" + uuid.New().String() + filepath.Ext(file.Filename)
}

// bindEventForm fills req from a multipart form, where ticketTypes arrives as
// a JSON-encoded field next to the image upload.
func bindEventForm(c *gin.Context, req *CreateEventRequest) bool {
	req.Title = c.PostForm("title")
	req.Description = c.PostForm("description")
	req.Date = c.PostForm("date")
	req.Time = c.PostForm("time")
	req.Location = c.PostForm("location")
	req.Category = c.PostForm("category")
	req.Status = c.PostForm("status")

	if raw := c.PostForm("ticketTypes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.TicketTypes); err != nil {
			badRequest(c, "invalid ticketTypes JSON")
			return false
		}
	}

	if file, err := c.FormFile("image"); err == nil {
		req.ImageURL = imageRef(file)
	}

	if req.Title == "" || req.Date == "" || req.Location == "" || req.Category == "" {
		badRequest(c, "title, date, location and category are required")
		return false
	}
	if len(req.TicketTypes) == 0 {
		badRequest(c, "at least one ticket type is required")
		return false
	}

	return true
}

func toCreateEventInput(c *gin.Context, req CreateEventRequest) (catalog.CreateEventInput, bool) {
	date, err := parseDate(req.Date)
	if err != nil {
		badRequest(c, "invalid date")
		return catalog.CreateEventInput{}, false
	}

	ticketTypes := make([]domain.TicketType, 0, len(req.TicketTypes))
	for _, tt := range req.TicketTypes {
		start, err := parseDate(tt.SaleStartDate)
		if err != nil {
			badRequest(c, "invalid saleStartDate")
			return catalog.CreateEventInput{}, false
		}
		end, err := parseDate(tt.SaleEndDate)
		if err != nil {
			badRequest(c, "invalid saleEndDate")
			return catalog.CreateEventInput{}, false
		}
		ticketTypes = append(ticketTypes, domain.TicketType{
			Name:          tt.Name,
			Price:         tt.Price,
			SaleStartDate: start,
			SaleEndDate:   end,
			MaxQuantity:   tt.MaxQuantity,
		})
	}

	return catalog.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		Category:    domain.EventCategory(req.Category),
		Status:      domain.EventStatus(req.Status),
		ImageURL:    req.ImageURL,
		TicketTypes: ticketTypes,
	}, true
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var (
		identityVal identity.ValidationError
		catalogVal  catalog.ValidationError
		bookingVal  booking.ValidationError
		paymentVal  payment.ValidationError
	)

	switch {
	// validation
	case errors.As(err, &identityVal):
		badRequest(c, identityVal.Msg)
	case errors.As(err, &catalogVal):
		badRequest(c, catalogVal.Msg)
	case errors.As(err, &bookingVal):
		badRequest(c, bookingVal.Msg)
	case errors.As(err, &paymentVal):
		badRequest(c, paymentVal.Msg)

	// identity service
	case errors.Is(err, identity.ErrDuplicateUser):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "email is already registered"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		badRequest(c, "invalid email or password")
	case errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})

	// catalog service
	case errors.Is(err, catalog.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})

	// booking service
	case errors.Is(err, booking.ErrTicketTypeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket type not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "not enough tickets remaining"})
	case errors.Is(err, booking.ErrOutsideSaleWindow):
		badRequest(c, "tickets are not on sale right now")

	// payment service
	case errors.Is(err, payment.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, payment.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "payment not found"})
	case errors.Is(err, payment.ErrBookingNotPayable):
		badRequest(c, "booking is not awaiting payment")
	case errors.Is(err, payment.ErrPaymentInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booking already has an active payment"})

	// billing service
	case errors.Is(err, billing.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "payment not found"})

	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
