package handler

import (
	"time"

	"canvass/internal/voter/models"
)

// createRequest is the JSON body for voter creation. The inserter identity
// comes from the authenticated viewer, not from the body; insertedByName is
// the only identity field the client supplies because tokens carry no
// display name.
type createRequest struct {
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone"`
	NationalID  string     `json:"nationalId,omitempty"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`

	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`

	SupportLevel  string `json:"supportLevel,omitempty"`
	ContactStatus string `json:"contactStatus,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Notes         string `json:"notes,omitempty"`

	InsertedByName       string `json:"insertedByName"`
	InserterNeighborhood string `json:"inserterNeighborhood,omitempty"`
	InserterCity         string `json:"inserterCity,omitempty"`

	// Legacy relational place ids are decoded so the guard can reject them
	// explicitly instead of silently dropping them.
	LegacyCityID         string `json:"cityId,omitempty"`
	LegacyNeighborhoodID string `json:"neighborhoodId,omitempty"`
}

func (r createRequest) toInput(viewer models.Viewer) models.CreateInput {
	return models.CreateInput{
		FullName:    r.FullName,
		Phone:       r.Phone,
		NationalID:  r.NationalID,
		Email:       r.Email,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,

		Address:      r.Address,
		City:         r.City,
		Neighborhood: r.Neighborhood,

		SupportLevel:  models.SupportLevel(r.SupportLevel),
		ContactStatus: models.ContactStatus(r.ContactStatus),
		Priority:      models.Priority(r.Priority),
		Notes:         r.Notes,

		Ownership: models.Ownership{
			InsertedByUserID:     viewer.UserID,
			InsertedByName:       r.InsertedByName,
			InsertedByRole:       viewer.Role,
			InserterNeighborhood: r.InserterNeighborhood,
			InserterCity:         r.InserterCity,
		},

		LegacyCityID:         r.LegacyCityID,
		LegacyNeighborhoodID: r.LegacyNeighborhoodID,
	}
}

// updateRequest is a partial patch; absent fields stay untouched. editorName
// is required so the edit history can freeze who made the change.
type updateRequest struct {
	FullName    *string    `json:"fullName,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	NationalID  *string    `json:"nationalId,omitempty"`
	Email       *string    `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`

	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`

	SupportLevel    *string    `json:"supportLevel,omitempty"`
	ContactStatus   *string    `json:"contactStatus,omitempty"`
	Priority        *string    `json:"priority,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`

	AssignedCityID   *string `json:"assignedCityId,omitempty"`
	AssignedCityName *string `json:"assignedCityName,omitempty"`

	EditorName string `json:"editorName"`
}

func (r updateRequest) toPatch() models.UpdatePatch {
	p := models.UpdatePatch{
		FullName:        r.FullName,
		Phone:           r.Phone,
		NationalID:      r.NationalID,
		Email:           r.Email,
		DateOfBirth:     r.DateOfBirth,
		Gender:          r.Gender,
		Address:         r.Address,
		City:            r.City,
		Neighborhood:    r.Neighborhood,
		Notes:           r.Notes,
		LastContactedAt: r.LastContactedAt,

		AssignedCityID:   r.AssignedCityID,
		AssignedCityName: r.AssignedCityName,
	}
	if r.SupportLevel != nil {
		lvl := models.SupportLevel(*r.SupportLevel)
		p.SupportLevel = &lvl
	}
	if r.ContactStatus != nil {
		st := models.ContactStatus(*r.ContactStatus)
		p.ContactStatus = &st
	}
	if r.Priority != nil {
		pr := models.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

// voterResponse is the wire shape of a voter record.
type voterResponse struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone"`
	NationalID  string     `json:"nationalId,omitempty"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`

	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`

	SupportLevel    string     `json:"supportLevel"`
	ContactStatus   string     `json:"contactStatus"`
	Priority        string     `json:"priority"`
	Notes           string     `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`

	InsertedByUserID     string `json:"insertedByUserId"`
	InsertedByName       string `json:"insertedByName"`
	InsertedByRole       string `json:"insertedByRole"`
	InserterNeighborhood string `json:"inserterNeighborhood,omitempty"`
	InserterCity         string `json:"inserterCity,omitempty"`

	AssignedCityID   string `json:"assignedCityId,omitempty"`
	AssignedCityName string `json:"assignedCityName,omitempty"`

	IsActive        bool       `json:"isActive"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
	DeletedByUserID string     `json:"deletedByUserId,omitempty"`

	InsertedAt time.Time `json:"insertedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toVoterResponse(v models.Voter) voterResponse {
	return voterResponse{
		ID:          v.ID,
		FullName:    v.FullName,
		Phone:       v.Phone,
		NationalID:  v.NationalID,
		Email:       v.Email,
		DateOfBirth: v.DateOfBirth,
		Gender:      v.Gender,

		Address:      v.Address,
		City:         v.City,
		Neighborhood: v.Neighborhood,

		SupportLevel:    string(v.SupportLevel),
		ContactStatus:   string(v.ContactStatus),
		Priority:        string(v.Priority),
		Notes:           v.Notes,
		LastContactedAt: v.LastContactedAt,

		InsertedByUserID:     v.InsertedByUserID,
		InsertedByName:       v.InsertedByName,
		InsertedByRole:       string(v.InsertedByRole),
		InserterNeighborhood: v.InserterNeighborhood,
		InserterCity:         v.InserterCity,

		AssignedCityID:   v.AssignedCityID,
		AssignedCityName: v.AssignedCityName,

		IsActive:        v.IsActive,
		DeletedAt:       v.DeletedAt,
		DeletedByUserID: v.DeletedByUserID,

		InsertedAt: v.InsertedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func toVoterResponses(voters []models.Voter) []voterResponse {
	out := make([]voterResponse, 0, len(voters))
	for _, v := range voters {
		out = append(out, toVoterResponse(v))
	}
	return out
}

// historyResponse is one audited field change.
type historyResponse struct {
	ID         string    `json:"id"`
	VoterID    string    `json:"voterId"`
	Field      string    `json:"field"`
	OldValue   string    `json:"oldValue"`
	NewValue   string    `json:"newValue"`
	EditorID   string    `json:"editorId"`
	EditorName string    `json:"editorName"`
	EditorRole string    `json:"editorRole"`
	EditedAt   time.Time `json:"editedAt"`
}

func toHistoryResponses(entries []models.EditHistory) []historyResponse {
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyResponse{
			ID:         e.ID,
			VoterID:    e.VoterID,
			Field:      e.Field,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			EditorID:   e.EditorUserID,
			EditorName: e.EditorName,
			EditorRole: string(e.EditorRole),
			EditedAt:   e.EditedAt,
		})
	}
	return out
}

// listResponse pairs a page of voters with the total visible count so
// clients can paginate.
type listResponse struct {
	Voters []voterResponse `json:"voters"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type statisticsResponse struct {
	Total           int            `json:"total"`
	Active          int            `json:"active"`
	Deleted         int            `json:"deleted"`
	BySupportLevel  map[string]int `json:"bySupportLevel"`
	ByContactStatus map[string]int `json:"byContactStatus"`
}

func toStatisticsResponse(s models.Statistics) statisticsResponse {
	bySupport := make(map[string]int, len(s.BySupportLevel))
	for k, v := range s.BySupportLevel {
		bySupport[string(k)] = v
	}
	byContact := make(map[string]int, len(s.ByContactStatus))
	for k, v := range s.ByContactStatus {
		byContact[string(k)] = v
	}
	return statisticsResponse{
		Total:           s.Total,
		Active:          s.Active,
		Deleted:         s.Deleted,
		BySupportLevel:  bySupport,
		ByContactStatus: byContact,
	}
}

type dayCountResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

func toDayCountResponses(days []models.DayCount) []dayCountResponse {
	out := make([]dayCountResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dayCountResponse{Day: d.Day.UTC().Format("2006-01-02"), Count: d.Count})
	}
	return out
}

type duplicateGroupResponse struct {
	Phone    string   `json:"phone"`
	Count    int      `json:"count"`
	VoterIDs []string `json:"voterIds"`
}

func toDuplicateGroupResponses(groups []models.DuplicateGroup) []duplicateGroupResponse {
	out := make([]duplicateGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, duplicateGroupResponse{Phone: g.Phone, Count: g.Count, VoterIDs: g.VoterIDs})
	}
	return out
}
