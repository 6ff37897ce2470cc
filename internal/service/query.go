package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Listing endpoints accept exactly these query keys; anything else is a
// request error.
var acceptedQueryKeys = map[string]struct{}{
	"tags":   {},
	"tag":    {},
	"count":  {},
	"offset": {},
}

// unlimitedLimit backs "offset without count": emitting LIMIT with a
// sentinel keeps the statement valid on sqlite, which rejects a bare
// OFFSET clause.
const unlimitedLimit = uint64(math.MaxInt64)

type bookmarkFilter struct {
	userID    string
	tags      []string
	limit     uint64
	hasLimit  bool
	offset    uint64
	hasOffset bool
}

func parseBookmarkFilter(userID string, params url.Values) (*bookmarkFilter, error) {
	for key := range params {
		if _, ok := acceptedQueryKeys[key]; !ok {
			return nil, malformed("unexpected query parameter: " + key)
		}
	}

	f := bookmarkFilter{userID: userID}

	raw, present := params["tags"]
	if !present {
		raw, present = params["tag"]
	}
	if present {
		value := ""
		if len(raw) > 0 {
			value = raw[0]
		}
		for _, tag := range strings.Split(value, ",") {
			f.tags = append(f.tags, strings.TrimSpace(tag))
		}
	}

	if _, ok := params["count"]; ok {
		n, err := strconv.ParseUint(params.Get("count"), 10, 63)
		if err != nil {
			return nil, malformed("count is not a number")
		}
		f.limit = n
		f.hasLimit = true
	}

	if _, ok := params["offset"]; ok {
		n, err := strconv.ParseInt(params.Get("offset"), 10, 64)
		if err != nil {
			return nil, malformed("offset is not a number")
		}
		// offsets are 1-based on the wire, 0-based in SQL
		n--
		if n < 0 {
			n = 0
		}
		f.offset = uint64(n)
		f.hasOffset = true
	}

	return &f, nil
}

func (f *bookmarkFilter) toSQL() (string, []interface{}, error) {
	q := squirrel.
		Select("url", "tags", "text", "user_id").
		From("bookmarks")

	if f.userID != "" {
		q = q.Where(squirrel.Eq{"user_id": f.userID})
	}

	for _, tag := range f.tags {
		q = q.Where(squirrel.Like{"tags": "%" + tag + "%"})
	}

	if f.userID != "" {
		q = q.OrderBy("url ASC")
	} else {
		q = q.OrderBy("url ASC", "user_id ASC")
	}

	switch {
	case f.hasLimit:
		q = q.Limit(f.limit)
		if f.hasOffset {
			q = q.Offset(f.offset)
		}
	case f.hasOffset:
		q = q.Limit(unlimitedLimit).Offset(f.offset)
	}

	return q.ToSql()
}
