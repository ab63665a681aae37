// Package api wraps the VTMS supervisor driver endpoints behind a small
// client with one normalized error contract. Transport failures, non-200
// HTTP statuses and application-level status fields all collapse into
// the sentinel errors in errors.go so callers never inspect raw
// responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"vtstaff/internal/domain"
	"vtstaff/internal/secret"
)

// DefaultBaseURL is the production supervisor API root.
const DefaultBaseURL = "https://vtms.co.in/api/supervisor"

// DriverAPI is the operation surface consumed by the duty flow and the
// CLI. *Client satisfies it.
type DriverAPI interface {
	RequestCode(ctx context.Context, mobileNumber string) error
	VerifyCode(ctx context.Context, mobileNumber, code string) (string, error)
	GetStatus(ctx context.Context) (*domain.DriverStatus, error)
	SubmitStartDuty(ctx context.Context, sub domain.StartDutySubmission) error
	SubmitEndDuty(ctx context.Context, sub domain.EndDutySubmission) error
}

// Client calls the supervisor API. Authenticated calls read the bearer
// token from the secret store on every request; a missing token is not
// an error client-side, the server decides.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secrets    secret.Store
}

var _ DriverAPI = (*Client)(nil)

// NewClient creates a Client. A zero timeout means no client-side
// deadline; only whatever transport timeout exists underneath applies.
func NewClient(baseURL string, timeout time.Duration, secrets secret.Store) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		secrets:    secrets,
	}
}

// envelope is the common response shape: an application-level status
// (number or string), an optional message and an optional data payload.
type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RequestCode asks the server to send a one-time code to the given
// mobile number. Success is the literal status "success".
func (c *Client) RequestCode(ctx context.Context, mobileNumber string) error {
	body, _, err := c.postJSON(ctx, "/request-otp.php", map[string]string{
		"mobile_number": mobileNumber,
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !statusIsSuccessWord(env.Status) {
		return requestFailed(env.Message, "Failed to send OTP")
	}
	return nil
}

// VerifyCode exchanges the mobile number and one-time code for a bearer
// token. The token may sit in several places in the response; extraction
// order is fixed in token.go. A successful response with no token is a
// malformed response, not a silent pass.
func (c *Client) VerifyCode(ctx context.Context, mobileNumber, code string) (string, error) {
	body, status, err := c.postJSON(ctx, "/verify-otp.php", map[string]string{
		"phone": mobileNumber,
		"otp":   code,
	})
	if err != nil {
		return "", err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if status != http.StatusOK || !(statusEquals200(env.Status) || statusIsSuccessWord(env.Status)) {
		return "", requestFailed(env.Message, "Invalid OTP. Please try again.")
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	token, ok := extractToken(decoded)
	if !ok {
		return "", fmt.Errorf("%w: login succeeded but no token received", ErrMalformedResponse)
	}
	return token, nil
}

// GetStatus fetches the current duty snapshot. The payload may arrive
// under "data" or at the top level.
func (c *Client) GetStatus(ctx context.Context) (*domain.DriverStatus, error) {
	// The trailing query is a cache buster the service expects.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/driver/status.php?1=1", nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if status == http.StatusUnauthorized {
		return nil, unauthorized(env.Message)
	}
	if status != http.StatusOK || !statusAbsentOr200(env.Status) {
		return nil, requestFailed(env.Message, "Failed to fetch status")
	}

	payload := body
	if len(env.Data) > 0 && string(env.Data) != "null" {
		payload = env.Data
	}
	var ds domain.DriverStatus
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &ds, nil
}

// SubmitStartDuty uploads a start-of-duty event as multipart form data.
func (c *Client) SubmitStartDuty(ctx context.Context, sub domain.StartDutySubmission) error {
	fields := []formField{
		{name: "odometer_reading", value: sub.OdometerReading},
		{name: "booking_id", value: sub.BookingID},
		{name: "user_name", value: sub.UserName},
		{name: "user_phone_no", value: sub.UserPhone},
		{name: "start_latitude", value: formatCoordinate(sub.Coordinates.Latitude)},
		{name: "start_longitude", value: formatCoordinate(sub.Coordinates.Longitude)},
	}
	return c.submitDuty(ctx, "/driver/start-duty.php", fields, "odometer_photo", "odometer.jpg", sub.Photo, "Failed to start duty")
}

// SubmitEndDuty uploads an end-of-duty event as multipart form data.
func (c *Client) SubmitEndDuty(ctx context.Context, sub domain.EndDutySubmission) error {
	fields := []formField{
		{name: "odometer_reading", value: sub.OdometerReading},
		{name: "end_latitude", value: formatCoordinate(sub.Coordinates.Latitude)},
		{name: "end_longitude", value: formatCoordinate(sub.Coordinates.Longitude)},
	}
	return c.submitDuty(ctx, "/driver/end-duty.php", fields, "end_odometer_photo", "end_odometer.jpg", sub.Photo, "Failed to end duty")
}

type formField struct {
	name  string
	value string
}

func (c *Client) submitDuty(ctx context.Context, path string, fields []formField, photoField, photoName string, photo domain.Photo, fallback string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	if err := writePhotoPart(writer, photoField, photoName, photo.Path); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return err
	}

	body, status, err := c.do(req)
	if err != nil {
		return err
	}

	// A body that fails to decode is treated as empty, matching the
	// tolerant parse the duty endpoints have always been read with.
	var env envelope
	_ = json.Unmarshal(body, &env)

	if status == http.StatusUnauthorized {
		return unauthorized(env.Message)
	}
	if status != http.StatusOK || !statusAbsentOr200(env.Status) {
		return requestFailed(env.Message, fallback)
	}
	return nil
}

func writePhotoPart(writer *multipart.Writer, field, filename, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// postJSON posts a JSON body and returns the raw response body and HTTP
// status.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	body, status, err := c.do(req)
	if err != nil {
		return nil, 0, err
	}
	return body, status, nil
}

// do executes the request, normalizing transport failures into ErrNetwork.
func (c *Client) do(req *http.Request) ([]byte, int, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return body, res.StatusCode, nil
}

// authorize attaches the stored bearer token when one exists. A missing
// token is fine; any other store failure is fatal.
func (c *Client) authorize(req *http.Request) error {
	token, err := c.secrets.Get()
	if err != nil {
		if errors.Is(err, secret.ErrNoToken) {
			return nil
		}
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func requestFailed(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return fmt.Errorf("%w: %s", ErrRequestFailed, message)
}

func unauthorized(message string) error {
	if message == "" {
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %s", ErrUnauthorized, message)
}

// statusIsSuccessWord reports whether the application-level status is the
// literal string "success".
func statusIsSuccessWord(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == `"success"`
}

// statusEquals200 reports whether the application-level status is the
// number 200. The string "200" deliberately does not count.
func statusEquals200(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "200"
}

// statusAbsentOr200 reports whether the status field is absent, null or
// otherwise empty, or equals the number 200.
func statusAbsentOr200(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	switch s {
	case "", "null", "0", `""`:
		return true
	}
	return s == "200"
}
