package domain

import "strings"

// Logical paths of the console shell.
const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathTenants   = "/tenants"
	PathRooms     = "/rooms"
	PathPayments  = "/payments"
	PathSettings  = "/settings"
)

// DefaultPath is where an authenticated operator lands.
const DefaultPath = PathDashboard

// Paths lists every screen of the shell in navigation order.
var Paths = []string{PathDashboard, PathTenants, PathRooms, PathPayments, PathSettings, PathLogin}

// NormalizePath reduces a path to its first segment, e.g. "/tenants/42" to "/tenants".
func NormalizePath(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return "/" + first
}

// Title returns the screen title for a path.
func Title(path string) string {
	switch NormalizePath(path) {
	case PathTenants:
		return "Tenants"
	case PathRooms:
		return "Rooms"
	case PathPayments:
		return "Payments"
	case PathSettings:
		return "Settings"
	case PathDashboard:
		return "Dashboard"
	case PathLogin:
		return "Login"
	default:
		return "Roomie"
	}
}

// FormMode tells whether a form dialog creates or edits a record.
type FormMode string

const (
	FormAdd  FormMode = "add"
	FormEdit FormMode = "edit"
)

// ToastKind is the severity of a notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a short notification shown to the operator.
type Toast struct {
	Message string
	Kind    ToastKind
}
