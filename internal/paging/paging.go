// Package paging normalises page/limit query values.
package paging

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalize clamps page to >= 1 and limit to [1, MaxLimit], using def when
// limit is unset.
func Normalize(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if def <= 0 {
		def = DefaultLimit
	}
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}

func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
