package model

import "slices"

type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleWorker || r == RoleAdmin
}

// Identity is an authenticated user
type Identity struct {
	User string
	Role Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// DefaultSites are the warehouses shifts can be recorded against when the
// configuration does not list its own
var DefaultSites = []string{
	"Bodega Barrio Cuba",
	"CEDI Coyol",
	"Bodega Cañas",
	"Bodega Coto",
	"Bodega San Carlos",
	"Bodega Pérez Zeledon",
}

// IsKnownSite reports whether site is one of sites (exact match)
func IsKnownSite(sites []string, site string) bool {
	return site != "" && slices.Contains(sites, site)
}

// ShiftState selects shifts by lifecycle state
type ShiftState string

const (
	ShiftStateAll    ShiftState = "all"
	ShiftStateOpen   ShiftState = "open"
	ShiftStateClosed ShiftState = "closed"
)

func (s ShiftState) IsValid() bool {
	return s == ShiftStateAll || s == ShiftStateOpen || s == ShiftStateClosed
}
