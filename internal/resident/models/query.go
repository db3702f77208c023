package models

import (
	"cmp"
	"math"
	"strings"

	dErrors "copro/pkg/domain-errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// FilterAll is the building/status filter value meaning "no filter".
	FilterAll = "all"
	// Undefined buckets residents, occupants or accounts with a blank
	// status, building or type in Statistics.
	Undefined = "undefined"
)

// SortField is a resident attribute a listing can be ordered by.
type SortField string

const (
	SortLotID     SortField = "lot_id"
	SortBuilding  SortField = "building"
	SortFloor     SortField = "floor"
	SortDoor      SortField = "door"
	SortOwnerName SortField = "owner_name"
	SortStatus    SortField = "status"
)

// Query selects one page of residents. An empty Sort orders by building
// then door.
type Query struct {
	Page     int
	Size     int
	Search   string
	Building string
	Status   string
	Sort     SortField
	Desc     bool
}

// Page is one slice of a resident listing.
type Page struct {
	Residents     []*Resident `json:"residents"`
	CurrentPage   int         `json:"current_page"`
	TotalPages    int         `json:"total_pages"`
	TotalElements int64       `json:"total_elements"`
	PageSize      int         `json:"page_size"`
}

// NewPage wraps one page of results with its totals.
func NewPage(residents []*Resident, q Query, total int64) Page {
	if residents == nil {
		residents = []*Resident{}
	}
	return Page{
		Residents:     residents,
		CurrentPage:   q.Page,
		TotalPages:    int((total + int64(q.Size) - 1) / int64(q.Size)),
		TotalElements: total,
		PageSize:      q.Size,
	}
}

// ParseSort reads "field" or "field,asc|desc".
func ParseSort(raw string) (SortField, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	field, dir, _ := strings.Cut(raw, ",")
	f := SortField(strings.TrimSpace(field))
	switch f {
	case SortLotID, SortBuilding, SortFloor, SortDoor, SortOwnerName, SortStatus:
	default:
		return "", false, dErrors.New(dErrors.CodeBadRequest, "unsupported sort field "+string(f))
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return f, false, nil
	case "desc":
		return f, true, nil
	default:
		return "", false, dErrors.New(dErrors.CodeBadRequest, "sort direction must be asc or desc")
	}
}

// Normalize trims the filters, maps FilterAll to no filter and checks the
// page bounds. A zero Size becomes DefaultPageSize.
func (q *Query) Normalize() error {
	q.Search = strings.TrimSpace(q.Search)
	q.Building = dropAll(q.Building)
	q.Status = dropAll(q.Status)
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Page < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "page must not be negative")
	}
	if q.Size < 1 || q.Size > MaxPageSize {
		return dErrors.New(dErrors.CodeBadRequest, "size must be between 1 and 100")
	}
	return nil
}

// Offset is the index of the first resident on the page.
func (q Query) Offset() int {
	return q.Page * q.Size
}

func dropAll(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}

// Matches reports whether r passes the query's filters. Search is a
// case-insensitive substring match on owner name, lot number, door and
// occupant or account names.
func (q Query) Matches(r *Resident) bool {
	if q.Building != "" && r.Location.Building != q.Building {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	contains := func(v string) bool { return strings.Contains(strings.ToLower(v), term) }
	if contains(r.Owner.Name) || contains(r.LotID) || contains(r.Location.Door) {
		return true
	}
	for _, o := range r.Occupants {
		if contains(o.Name) {
			return true
		}
	}
	for _, a := range r.Accounts {
		if contains(a.Name) {
			return true
		}
	}
	return false
}

// Compare orders two residents the way the query sorts them. Ties fall
// back to the ID so pages are stable.
func (q Query) Compare(a, b *Resident) int {
	var c int
	if q.Sort == "" {
		c = cmp.Or(
			cmp.Compare(a.Location.Building, b.Location.Building),
			cmp.Compare(a.Location.Door, b.Location.Door),
		)
	} else {
		c = cmp.Compare(sortValue(a, q.Sort), sortValue(b, q.Sort))
		if q.Desc {
			c = -c
		}
	}
	return cmp.Or(c, cmp.Compare(a.ID, b.ID))
}

func sortValue(r *Resident, f SortField) string {
	switch f {
	case SortLotID:
		return r.LotID
	case SortBuilding:
		return r.Location.Building
	case SortFloor:
		return r.Location.Floor
	case SortDoor:
		return r.Location.Door
	case SortOwnerName:
		return r.Owner.Name
	case SortStatus:
		return r.Status
	default:
		return ""
	}
}

// Statistics summarizes the whole residence.
type Statistics struct {
	TotalLots            int64            `json:"total_lots"`
	TotalBuildings       int64            `json:"total_buildings"`
	TotalOccupants       int64            `json:"total_occupants"`
	TotalAccounts        int64            `json:"total_accounts"`
	ByStatus             map[string]int64 `json:"by_status"`
	ByBuilding           map[string]int64 `json:"by_building"`
	LotsWithOccupants    int64            `json:"lots_with_occupants"`
	LotsWithoutOccupants int64            `json:"lots_without_occupants"`
	AverageOccupants     float64          `json:"average_occupants"`
	AccountsByType       map[string]int64 `json:"accounts_by_type"`
}

// ComputeStatistics aggregates residents. The occupant average is rounded
// to one decimal.
func ComputeStatistics(residents []*Resident) Statistics {
	st := Statistics{
		ByStatus:       make(map[string]int64),
		ByBuilding:     make(map[string]int64),
		AccountsByType: make(map[string]int64),
	}
	buildings := make(map[string]struct{})
	for _, r := range residents {
		st.TotalLots++
		st.TotalOccupants += int64(len(r.Occupants))
		st.TotalAccounts += int64(len(r.Accounts))
		if r.Location.Building != "" {
			buildings[r.Location.Building] = struct{}{}
		}
		st.ByStatus[orUndefined(r.Status)]++
		st.ByBuilding[orUndefined(r.Location.Building)]++
		if len(r.Occupants) > 0 {
			st.LotsWithOccupants++
		}
		for _, a := range r.Accounts {
			st.AccountsByType[orUndefined(a.Type)]++
		}
	}
	st.TotalBuildings = int64(len(buildings))
	st.LotsWithoutOccupants = st.TotalLots - st.LotsWithOccupants
	if st.TotalLots > 0 {
		st.AverageOccupants = math.Round(float64(st.TotalOccupants)/float64(st.TotalLots)*10) / 10
	}
	return st
}

func orUndefined(v string) string {
	if v == "" {
		return Undefined
	}
	return v
}
