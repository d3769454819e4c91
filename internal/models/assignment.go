package models

// Status values stored with an assignment and shown on the status keyboard.
// StatusDismissed is a transient signal: selecting it deletes the assignment,
// it is never kept in storage.
const (
	StatusOnShift   = "Выход"
	StatusLunch     = "Обед"
	StatusDeparted  = "Вылет"
	StatusDismissed = "Сход"
)

// Assignment is the per-(chat, person) record of the current status plus the
// chosen route and vehicle. Route and vehicle are independent optional
// selections; id and display label of each are always set or cleared together.
type Assignment struct {
	PeerID      int64
	UserID      int64
	Status      string
	RouteID     *int
	RouteName   *string
	VehicleID   *int
	BoardNumber *string
	UpdatedAt   int64 // unix seconds of the last write
}

// ActiveEntry is one row of the active roster query.
type ActiveEntry struct {
	UserID      int64
	Status      string
	RouteName   *string
	BoardNumber *string
}

// RouteRef is an immutable route snapshot from the reference API.
type RouteRef struct {
	ID   int
	Name string
}

// VehicleRef is an immutable vehicle snapshot from the reference API.
// Vehicles without a board number are not selectable and are dropped
// at ingestion.
type VehicleRef struct {
	ID          int
	BoardNumber string
}
