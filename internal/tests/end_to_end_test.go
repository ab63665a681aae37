package tests

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"vtstaff/internal/api"
	"vtstaff/internal/domain"
	"vtstaff/internal/duty"
	"vtstaff/internal/emulator"
	"vtstaff/internal/location"
	"vtstaff/internal/media"
	"vtstaff/internal/secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness wires a real client, secret store and duty flow against an
// emulator instance.
type harness struct {
	server  *httptest.Server
	client  *api.Client
	secrets *secret.FileStore
	flow    *duty.Flow
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	router := emulator.NewRouter(emulator.RouterDeps{Store: emulator.NewMemoryStore()})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	secrets := secret.NewFileStore(filepath.Join(dir, "token"))
	client := api.NewClient(server.URL, 0, secrets)

	positions := &location.StaticSource{Position: &domain.Coordinates{Latitude: 12.9, Longitude: 77.6}}
	flow := duty.NewFlow(client,
		&media.JPEGTranscoder{OutputDir: dir},
		location.NewResolver(positions),
		location.GrantedGate{},
	)

	return &harness{server: server, client: client, secrets: secrets, flow: flow, dir: dir}
}

// requestCode pulls the OTP out of the emulator's dev echo.
func (h *harness) requestCode(t *testing.T, phone string) string {
	t.Helper()
	res, err := http.Post(h.server.URL+"/request-otp.php", "application/json",
		strings.NewReader(`{"mobile_number":"`+phone+`"}`))
	if err != nil {
		t.Fatalf("request-otp: %v", err)
	}
	defer res.Body.Close()
	var decoded struct {
		Status string `json:"status"`
		Data   struct {
			OTP string `json:"otp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode request-otp response: %v", err)
	}
	if decoded.Status != "success" || decoded.Data.OTP == "" {
		t.Fatalf("unexpected request-otp response: %+v", decoded)
	}
	return decoded.Data.OTP
}

func (h *harness) login(t *testing.T, phone string) {
	t.Helper()
	code := h.requestCode(t, phone)
	token, err := h.client.VerifyCode(context.Background(), phone, code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := h.secrets.Set(token); err != nil {
		t.Fatalf("store token: %v", err)
	}
}

func (h *harness) photo(t *testing.T) *domain.Photo {
	t.Helper()
	img := imaging.New(2048, 1536, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	path := filepath.Join(h.dir, "meter.jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return &domain.Photo{Path: path}
}

func TestEndToEnd_RequestCodeSucceeds(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.client.RequestCode(context.Background(), "9876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEndToEnd_StatusRequiresLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.client.GetStatus(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a token, got %v", err)
	}
}

func TestEndToEnd_FullDutyCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.login(t, "9876543210")

	status, err := h.client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DutyStatus != domain.DutyStatusOff {
		t.Fatalf("expected off_duty, got %s", status.DutyStatus)
	}
	if !status.HasVehicle || status.Booking == nil {
		t.Fatalf("expected seeded vehicle and booking: %+v", status)
	}

	form, err := h.flow.PrepareStart(ctx, status)
	if err != nil {
		t.Fatalf("prepare start: %v", err)
	}
	form.OdometerReading = "12345"
	form.Photo = h.photo(t)

	if err := h.flow.SubmitStart(ctx, form); err != nil {
		t.Fatalf("submit start: %v", err)
	}
	if h.flow.State() != duty.StateSucceeded {
		t.Fatalf("expected Succeeded, got %s", h.flow.State())
	}

	status, err = h.client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("status after start: %v", err)
	}
	if status.DutyStatus != domain.DutyStatusOn {
		t.Fatalf("expected on_duty after start, got %s", status.DutyStatus)
	}

	endForm, err := h.flow.PrepareEnd(ctx, status)
	if err != nil {
		t.Fatalf("prepare end: %v", err)
	}
	endForm.OdometerReading = "12400"
	endForm.Photo = h.photo(t)

	if err := h.flow.SubmitEnd(ctx, endForm); err != nil {
		t.Fatalf("submit end: %v", err)
	}

	status, err = h.client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("status after end: %v", err)
	}
	if status.DutyStatus != domain.DutyStatusOff {
		t.Fatalf("expected off_duty after end, got %s", status.DutyStatus)
	}
}

func TestEndToEnd_WrongOTPSurfacesRequestFailed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.requestCode(t, "9876543210")

	_, err := h.client.VerifyCode(context.Background(), "9876543210", "000000")
	if !errors.Is(err, api.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid OTP") {
		t.Errorf("expected server message, got %q", err.Error())
	}
}
