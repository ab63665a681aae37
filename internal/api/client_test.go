package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vtstaff/internal/domain"
	"vtstaff/internal/secret"
)

// memStore is an in-memory secret.Store for tests.
type memStore struct {
	token string
}

func (m *memStore) Set(token string) error { m.token = token; return nil }
func (m *memStore) Clear() error           { m.token = ""; return nil }
func (m *memStore) Get() (string, error) {
	if m.token == "" {
		return "", secret.ErrNoToken
	}
	return m.token, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memStore, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := &memStore{}
	return NewClient(server.URL, 0, store), store, server
}

func TestRequestCode_Success(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/request-otp.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		w.Write([]byte(`{"status":"success"}`))
	}))

	if err := client.RequestCode(context.Background(), "9876543210"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestCode_ErrorStatus(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"unknown number"}`))
	}))

	err := client.RequestCode(context.Background(), "0000000000")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown number") {
		t.Errorf("expected server message in error, got %q", err.Error())
	}
}

func TestVerifyCode_TokenPrecedence(t *testing.T) {
	t.Parallel()

	// Top-level token must win over the nested data.jwt.
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"token":"top-level","data":{"jwt":"nested"}}`))
	}))

	token, err := client.VerifyCode(context.Background(), "9876543210", "1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "top-level" {
		t.Errorf("expected top-level token to win, got %q", token)
	}
}

func TestVerifyCode_NestedTokenLocations(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body string
		want string
	}{
		{name: "top-level jwt", body: `{"status":"success","jwt":"j1"}`, want: "j1"},
		{name: "top-level access_token", body: `{"status":200,"access_token":"a1"}`, want: "a1"},
		{name: "nested token", body: `{"status":200,"data":{"token":"t1"}}`, want: "t1"},
		{name: "nested access_token", body: `{"status":200,"data":{"access_token":"a2"}}`, want: "a2"},
		{name: "jwt beats access_token", body: `{"status":200,"jwt":"j2","access_token":"a3"}`, want: "j2"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			token, err := client.VerifyCode(context.Background(), "9876543210", "1234")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tc.want {
				t.Errorf("expected token %q, got %q", tc.want, token)
			}
		})
	}
}

func TestVerifyCode_MissingToken(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"message":"ok"}`))
	}))

	_, err := client.VerifyCode(context.Background(), "9876543210", "1234")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestVerifyCode_RejectedCode(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"Invalid OTP"}`))
	}))

	_, err := client.VerifyCode(context.Background(), "9876543210", "9999")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestVerifyThenStatus_BearerHeaderAttached(t *testing.T) {
	t.Parallel()

	var gotAuth string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/verify-otp.php":
			w.Write([]byte(`{"status":200,"token":"abc"}`))
		case "/driver/status.php":
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"status":200,"data":{"duty_status":"off_duty","has_vehicle":false}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	token, err := client.VerifyCode(context.Background(), "9876543210", "1234")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := store.Set(token); err != nil {
		t.Fatalf("store: %v", err)
	}

	if _, err := client.GetStatus(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("expected Authorization %q, got %q", "Bearer abc", gotAuth)
	}
}

func TestGetStatus_ParsesSnapshot(t *testing.T) {
	t.Parallel()

	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"data":{
			"duty_status":"on_duty",
			"has_vehicle":true,
			"duration":12345,
			"vehicle_details":{"registration":"KA01AB1234"},
			"booking":{"booking_id":"BK-7","user_name":"Asha","user_phone":9876543210}
		}}`))
	}))
	store.Set("abc")

	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.DutyStatus != domain.DutyStatusOn {
		t.Errorf("expected on_duty, got %s", status.DutyStatus)
	}
	if !status.HasVehicle {
		t.Error("expected has_vehicle true")
	}
	if status.Duration != 12345 {
		t.Errorf("expected duration 12345, got %d", status.Duration)
	}
	if status.VehicleDetails == nil || status.VehicleDetails.Registration != "KA01AB1234" {
		t.Errorf("unexpected vehicle details: %+v", status.VehicleDetails)
	}
	if status.Booking == nil || status.Booking.BookingID != "BK-7" {
		t.Fatalf("unexpected booking: %+v", status.Booking)
	}
	// Numeric phone decodes to its string form.
	if status.Booking.UserPhone.String() != "9876543210" {
		t.Errorf("expected phone %q, got %q", "9876543210", status.Booking.UserPhone)
	}
}

func TestGetStatus_TopLevelPayload(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"duty_status":"off_duty","has_vehicle":false}`))
	}))

	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.DutyStatus != domain.DutyStatusOff || status.HasVehicle {
		t.Errorf("unexpected snapshot: %+v", status)
	}
}

func TestGetStatus_Unauthorized(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}))

	_, err := client.GetStatus(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "Token expired") {
		t.Errorf("expected server message in error, got %q", err.Error())
	}
}

func TestSubmitStartDuty_MultipartFields(t *testing.T) {
	t.Parallel()

	photoPath := filepath.Join(t.TempDir(), "meter.jpg")
	if err := os.WriteFile(photoPath, []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	var gotFields map[string]string
	var gotFilename, gotContentType, gotAuth string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/driver/start-duty.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotFields = make(map[string]string)
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}
		file, header, err := r.FormFile("odometer_photo")
		if err != nil {
			t.Fatalf("photo part: %v", err)
		}
		defer file.Close()
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		w.Write([]byte(`{"status":200}`))
	}))
	store.Set("abc")

	sub := domain.StartDutySubmission{
		OdometerReading: "12345",
		Photo:           domain.Photo{Path: photoPath},
		Coordinates:     domain.Coordinates{Latitude: 12.9, Longitude: 77.6},
		BookingID:       "BK-7",
		UserName:        "Asha",
		UserPhone:       "9876543210",
	}
	if err := client.SubmitStartDuty(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"odometer_reading": "12345",
		"booking_id":       "BK-7",
		"user_name":        "Asha",
		"user_phone_no":    "9876543210",
		"start_latitude":   "12.9",
		"start_longitude":  "77.6",
	}
	for name, value := range want {
		if gotFields[name] != value {
			t.Errorf("field %s: expected %q, got %q", name, value, gotFields[name])
		}
	}
	if len(gotFields) != len(want) {
		t.Errorf("expected exactly %d value fields, got %v", len(want), gotFields)
	}
	if gotFilename != "odometer.jpg" {
		t.Errorf("expected filename odometer.jpg, got %q", gotFilename)
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg part, got %q", gotContentType)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestSubmitEndDuty_MultipartFields(t *testing.T) {
	t.Parallel()

	photoPath := filepath.Join(t.TempDir(), "meter.jpg")
	if err := os.WriteFile(photoPath, []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	var gotFields map[string]string
	var gotFilename string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/driver/end-duty.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotFields = make(map[string]string)
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}
		_, header, err := r.FormFile("end_odometer_photo")
		if err != nil {
			t.Fatalf("photo part: %v", err)
		}
		gotFilename = header.Filename
		w.Write([]byte(`{"status":200}`))
	}))
	store.Set("abc")

	sub := domain.EndDutySubmission{
		OdometerReading: "12400",
		Photo:           domain.Photo{Path: photoPath},
		Coordinates:     domain.Coordinates{Latitude: 12.95, Longitude: 77.65},
	}
	if err := client.SubmitEndDuty(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"odometer_reading": "12400",
		"end_latitude":     "12.95",
		"end_longitude":    "77.65",
	}
	for name, value := range want {
		if gotFields[name] != value {
			t.Errorf("field %s: expected %q, got %q", name, value, gotFields[name])
		}
	}
	if gotFilename != "end_odometer.jpg" {
		t.Errorf("expected filename end_odometer.jpg, got %q", gotFilename)
	}
}

func TestSubmit_ServerRejection(t *testing.T) {
	t.Parallel()

	photoPath := filepath.Join(t.TempDir(), "meter.jpg")
	if err := os.WriteFile(photoPath, []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"duty already started"}`))
	}))

	err := client.SubmitStartDuty(context.Background(), domain.StartDutySubmission{
		OdometerReading: "1",
		Photo:           domain.Photo{Path: photoPath},
	})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "duty already started") {
		t.Errorf("expected server message, got %q", err.Error())
	}
}

func TestNetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	store := &memStore{}
	client := NewClient(server.URL, 0, store)
	server.Close() // nothing listening anymore

	if err := client.RequestCode(context.Background(), "9876543210"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, err := client.GetStatus(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}
