package models

import "time"

// Account maps the virtual account id presented by the payment processor to
// the fleet-side driver profile. The mapping is append-only: once a virtual
// id is assigned to a driver it is never reassigned or deleted.
type Account struct {
	VirtualID string    `json:"virtual_id"`
	DriverID  string    `json:"driver_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
