package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DutyStatus represents whether a driver is currently on duty.
type DutyStatus string

const (
	DutyStatusOff DutyStatus = "off_duty"
	DutyStatusOn  DutyStatus = "on_duty"
)

// DriverStatus is the server-owned duty snapshot. It is fetched fresh
// for every screen and replaced wholesale; nothing in it is mutated
// locally.
type DriverStatus struct {
	DutyStatus     DutyStatus      `json:"duty_status"`
	HasVehicle     bool            `json:"has_vehicle"`
	Duration       int64           `json:"duration"`
	VehicleDetails *VehicleDetails `json:"vehicle_details,omitempty"`
	Booking        *Booking        `json:"booking,omitempty"`
}

// VehicleDetails describes the vehicle currently assigned to the driver.
type VehicleDetails struct {
	Registration string `json:"registration"`
	Model        string `json:"model,omitempty"`
}

// Booking is the server-assigned job a driver references when starting duty.
type Booking struct {
	BookingID string      `json:"booking_id"`
	UserName  string      `json:"user_name"`
	UserPhone PhoneNumber `json:"user_phone"`
}

// PhoneNumber decodes from either a JSON string or a JSON number; the
// status endpoint has been observed returning both.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PhoneNumber(s)
		return nil
	}
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("phone number: %w", err)
	}
	*p = PhoneNumber(n.String())
	return nil
}

func (p PhoneNumber) String() string { return string(p) }

// FormatDuration renders an on-duty duration in whole hours and minutes.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0h 0m"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return strconv.FormatInt(h, 10) + "h " + strconv.FormatInt(m, 10) + "m"
}
