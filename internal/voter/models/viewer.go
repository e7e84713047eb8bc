package models

// Role is the fixed organizational hierarchy, top to bottom.
type Role string

const (
	RoleAdmin               Role = "admin"
	RoleAreaManager         Role = "area_manager"
	RoleCityCoordinator     Role = "city_coordinator"
	RoleActivistCoordinator Role = "activist_coordinator"
	RoleFieldWorker         Role = "field_worker"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleAreaManager, RoleCityCoordinator, RoleActivistCoordinator, RoleFieldWorker:
		return true
	}
	return false
}

// Viewer is the acting organizational identity for a request. Only the
// scoping ids relevant to the role are populated: AreaID for area managers,
// CityID for city coordinators, CoordinatorID for activist coordinators.
type Viewer struct {
	UserID        string
	Role          Role
	AreaID        string
	CityID        string
	CoordinatorID string
}
