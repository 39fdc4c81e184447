package shared

import (
	"net/http"
	"strconv"
)

// Page is a limit/offset window over a list endpoint. Callers may send
// limit/offset directly or page/pageSize (1-based).
type Page struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Page {
	q := r.URL.Query()
	limit := positiveInt(q.Get("limit"), 0)
	if limit == 0 {
		limit = positiveInt(q.Get("pageSize"), defaultLimit)
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	} else if n := positiveInt(q.Get("page"), 1); n > 1 {
		offset = (n - 1) * limit
	}
	return Page{Limit: limit, Offset: offset}
}

// SetTotal advertises the unpaged row count.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}

func positiveInt(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
