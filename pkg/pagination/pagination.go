package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
// Pages are sliced out of the already-ranked full result set, so the
// params never reach the record store.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the page number to 1-based indexing.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Window returns the [start, end) slice bounds for the given total size.
// A page past the end yields an empty window rather than an error.
func Window(total int, p Params) (int, int) {
	limit := NormalizeLimit(p.Limit)
	page := NormalizePage(p.Page)
	start := (page - 1) * limit
	if start >= total {
		return total, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

// TotalPages reports how many pages the total splits into.
func TotalPages(total int, limit int) int {
	limit = NormalizeLimit(limit)
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
