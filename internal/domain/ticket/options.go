package ticket

import (
	"net/url"
	"strconv"
	"strings"
)

// ListParams filters, sorts and pages GET /tickets. Zero values are unset.
type ListParams struct {
	Page         int
	PageSize     int
	Search       string
	TypeID       int64
	StatusID     int64
	PriorityID   int64
	DepartmentID int64
	AssigneeID   int64
	ReporterID   int64
	DateFrom     string
	DateTo       string
	Tags         []string
	SortBy       string
	SortOrder    string // "asc" or "desc"
}

// Values encodes the params as a query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	setInt(v, "page", int64(p.Page))
	setInt(v, "pageSize", int64(p.PageSize))
	setString(v, "search", p.Search)
	setInt(v, "typeId", p.TypeID)
	setInt(v, "statusId", p.StatusID)
	setInt(v, "priorityId", p.PriorityID)
	setInt(v, "departmentId", p.DepartmentID)
	setInt(v, "assigneeId", p.AssigneeID)
	setInt(v, "reporterId", p.ReporterID)
	setString(v, "dateFrom", p.DateFrom)
	setString(v, "dateTo", p.DateTo)
	for _, tag := range p.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			v.Add("tags", tag)
		}
	}
	setString(v, "sortBy", p.SortBy)
	setString(v, "sortOrder", p.SortOrder)
	return v
}

// newestFirst reports whether the params sort by creation time descending,
// which is also the server default when no sort is given.
func (p ListParams) newestFirst() bool {
	switch p.SortBy {
	case "", "createdAt", "created_at", "id":
	default:
		return false
	}
	order := strings.ToLower(p.SortOrder)
	if p.SortBy == "" {
		return order == "" || order == "desc"
	}
	return order == "desc"
}

func setInt(v url.Values, key string, n int64) {
	if n > 0 {
		v.Set(key, strconv.FormatInt(n, 10))
	}
}

func setString(v url.Values, key, s string) {
	if s = strings.TrimSpace(s); s != "" {
		v.Set(key, s)
	}
}
