package models

// Device is created on first registration and updated on every subsequent
// one. Devices are never deleted by the server.
type Device struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	Platform   string `json:"platform"`
	CreatedAt  int64  `json:"created_at"`
	LastSeenAt int64  `json:"last_seen_at"`
}

// ConfigEntry is one row of the mutable server configuration table. It is
// read fresh per request: multiple stateless instances may run concurrently,
// so nothing is cached in process.
type ConfigEntry struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	UpdatedAt   int64   `json:"updated_at"`
	Description *string `json:"description,omitempty"`
}
