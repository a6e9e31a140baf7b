package workflow

import "grievance-portal/services/portal-service/models"

// Tally folds per-status counts into dashboard buckets. Statuses without a
// bucket of their own count as pending.
func Tally(counts map[string]int64) models.GrievanceStats {
	var s models.GrievanceStats
	for status, n := range counts {
		s.Total += n
		switch status {
		case models.StatusResolved:
			s.Resolved += n
		case models.StatusRejected:
			s.Rejected += n
		case models.StatusInProgress:
			s.InProgress += n
		case models.StatusAssigned:
			s.Assigned += n
		default:
			s.Pending += n
		}
	}
	return s
}

// Pagination normalises page and limit query values.
type Pagination struct {
	Page  int
	Limit int
}

const MaxPageSize = 100

func NewPagination(page, limit, defaultLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

func (p Pagination) Pages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
