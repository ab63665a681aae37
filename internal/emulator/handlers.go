package emulator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vtstaff/internal/domain"
)

// Handler serves the five supervisor endpoints against a Store.
type Handler struct {
	store Store
}

// NewHandler creates a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// appError is the 200-with-error-status shape the production API uses
// for application-level failures.
func appError(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": message})
}

// RequestOTPRequest is the request-code body.
type RequestOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
}

// RequestOTP handles POST /request-otp.php. Unknown numbers get a
// default driver record seeded with a vehicle and booking so any phone
// can log in against the emulator.
func (h *Handler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appError(c, "invalid request body")
		return
	}
	phone := strings.TrimSpace(req.MobileNumber)
	if phone == "" {
		appError(c, "mobile_number is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetDriver(ctx, phone); errors.Is(err, ErrNotFound) {
		if err := h.store.PutDriver(ctx, seedDriver(phone)); err != nil {
			appError(c, err.Error())
			return
		}
	} else if err != nil {
		appError(c, err.Error())
		return
	}

	code := newOTPCode()
	if err := h.store.PutOTP(ctx, phone, code); err != nil {
		appError(c, err.Error())
		return
	}

	// The code is echoed back: there is no SMS gateway here.
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "OTP sent",
		"data":    gin.H{"otp": code},
	})
}

// VerifyOTPRequest is the verify-code body.
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTP handles POST /verify-otp.php.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appError(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	code, err := h.store.TakeOTP(ctx, req.Phone)
	if err != nil || code != strings.TrimSpace(req.OTP) {
		appError(c, "Invalid OTP")
		return
	}

	token := uuid.New().String()
	if err := h.store.PutSession(ctx, token, req.Phone); err != nil {
		appError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": 200,
		"data":   gin.H{"token": token},
	})
}

// Status handles GET /driver/status.php.
func (h *Handler) Status(c *gin.Context) {
	state, ok := h.authenticate(c)
	if !ok {
		return
	}

	snapshot := domain.DriverStatus{
		DutyStatus: domain.DutyStatusOff,
		HasVehicle: state.HasVehicle,
	}
	if state.OnDuty {
		snapshot.DutyStatus = domain.DutyStatusOn
		if state.DutyStartedAt != nil {
			snapshot.Duration = int64(time.Since(*state.DutyStartedAt).Seconds())
		}
	}
	if state.HasVehicle {
		snapshot.VehicleDetails = &domain.VehicleDetails{Registration: state.Registration}
	}
	if state.BookingID != "" {
		snapshot.Booking = &domain.Booking{
			BookingID: state.BookingID,
			UserName:  state.UserName,
			UserPhone: domain.PhoneNumber(state.UserPhone),
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": 200, "data": snapshot})
}

// StartDuty handles POST /driver/start-duty.php.
func (h *Handler) StartDuty(c *gin.Context) {
	state, ok := h.authenticate(c)
	if !ok {
		return
	}
	if state.OnDuty {
		appError(c, "duty already started")
		return
	}
	if !h.requireSubmission(c, "odometer_photo") {
		return
	}

	now := time.Now()
	state.OnDuty = true
	state.DutyStartedAt = &now
	if err := h.store.PutDriver(c.Request.Context(), state); err != nil {
		appError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": 200, "message": "Duty started"})
}

// EndDuty handles POST /driver/end-duty.php.
func (h *Handler) EndDuty(c *gin.Context) {
	state, ok := h.authenticate(c)
	if !ok {
		return
	}
	if !state.OnDuty {
		appError(c, "duty not started")
		return
	}
	if !h.requireSubmission(c, "end_odometer_photo") {
		return
	}

	state.OnDuty = false
	state.DutyStartedAt = nil
	if err := h.store.PutDriver(c.Request.Context(), state); err != nil {
		appError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": 200, "message": "Duty ended"})
}

// requireSubmission enforces the odometer reading and photo part of a
// duty upload.
func (h *Handler) requireSubmission(c *gin.Context, photoField string) bool {
	if strings.TrimSpace(c.PostForm("odometer_reading")) == "" {
		appError(c, "odometer_reading is required")
		return false
	}
	if _, err := c.FormFile(photoField); err != nil {
		appError(c, photoField+" is required")
		return false
	}
	return true
}

// authenticate resolves the bearer token to a driver record, answering
// 401 when it cannot.
func (h *Handler) authenticate(c *gin.Context) (*DriverState, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": 401, "message": "Unauthorized"})
		return nil, false
	}

	ctx := c.Request.Context()
	phone, err := h.store.GetSession(ctx, token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": 401, "message": "Unauthorized"})
		return nil, false
	}
	state, err := h.store.GetDriver(ctx, phone)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": 401, "message": "Unauthorized"})
		return nil, false
	}
	return state, true
}

// seedDriver builds the default record for a first-seen phone number.
func seedDriver(phone string) *DriverState {
	return &DriverState{
		Phone:        phone,
		HasVehicle:   true,
		Registration: "KA01AB1234",
		BookingID:    "BK-" + uuid.New().String()[:8],
		UserName:     "Test User",
		UserPhone:    "9000000000",
	}
}

// newOTPCode derives a 6-digit code from fresh uuid bytes.
func newOTPCode() string {
	u := uuid.New()
	n := binary.BigEndian.Uint32(u[0:4]) % 1000000
	return fmt.Sprintf("%06d", n)
}
