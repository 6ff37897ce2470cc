package service

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/db"
)

var bookmarkAcceptedKeys = map[string]struct{}{
	"url":     {},
	"tags":    {},
	"text":    {},
	"user_id": {},
}

type (
	BookmarkRecord struct {
		URL    string `json:"url" validate:"required"`
		Tags   string `json:"tags"`
		Text   string `json:"text"`
		UserID string `json:"user_id" validate:"required"`
	}

	BookmarkList struct {
		Count     int              `json:"count"`
		Bookmarks []BookmarkRecord `json:"bookmarks"`
	}
)

func (s *Service) ListBookmarks(params url.Values) (*BookmarkList, error) {
	f, err := parseBookmarkFilter("", params)
	if err != nil {
		return nil, err
	}
	return s.runBookmarkQuery(f)
}

// ListUserBookmarks behaves like ListBookmarks scoped to one owner,
// except that the owner must exist and an empty result is reported as
// not-found rather than an empty page.
func (s *Service) ListUserBookmarks(userID string, params url.Values) (*BookmarkList, error) {
	exists, err := s.userExists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(msgUserNotFound)
	}

	f, err := parseBookmarkFilter(userID, params)
	if err != nil {
		return nil, err
	}
	list, err := s.runBookmarkQuery(f)
	if err != nil {
		return nil, err
	}
	if list.Count == 0 {
		return nil, notFound(msgBookmarkNotFound)
	}
	return list, nil
}

func (s *Service) GetBookmark(userID, bookmarkURL string) (*BookmarkList, error) {
	exists, err := s.userExists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(msgUserNotFound)
	}

	sql, args, err := squirrel.
		Select("url", "tags", "text", "user_id").From("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "url": bookmarkURL}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]db.Bookmark, 0)
	res := s.db.Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "query bookmarks")
	}
	if len(rows) == 0 {
		return nil, notFound(msgBookmarkNotFound)
	}
	return toBookmarkList(rows), nil
}

// CreateBookmarks inserts each batch item for the path owner. A missing
// owner aborts the remainder of the batch; duplicates of an existing
// (user_id, url) pair are collected as reasons and skipped. Items are
// committed one by one.
func (s *Service) CreateBookmarks(pathUserID string, body []byte) (*BookmarkList, error) {
	count, items, err := decodeBookmarkBatch(body, false)
	if err != nil {
		return nil, err
	}

	reasons := make([]Reason, 0)
	added := make([]BookmarkRecord, 0, len(items))
	for _, item := range items {
		item.Tags = strings.TrimSpace(item.Tags)
		item.Text = strings.TrimSpace(item.Text)
		item.UserID = strings.TrimSpace(item.UserID)

		if err := s.validate.Struct(&item); err != nil {
			return nil, malformed("bookmark is missing a required field")
		}
		if item.UserID != pathUserID {
			return nil, malformed("user_id does not match the request path")
		}

		exists, err := s.userExists(item.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, notFound(msgUserNotFound)
		}

		dup, err := s.bookmarkExists(item.UserID, item.URL)
		if err != nil {
			return nil, err
		}
		if dup {
			reasons = append(reasons, Reason{Message: msgBookmarkAlreadyExists})
			continue
		}

		sql, args, err := squirrel.
			Insert("bookmarks").
			Columns("url", "tags", "text", "user_id").
			Values(item.URL, item.Tags, item.Text, item.UserID).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build sql")
		}
		res := s.db.Exec(sql, args...)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "insert bookmark")
		}

		s.logger.Infow("bookmark created", "user_id", item.UserID, "url", item.URL)
		added = append(added, item)
	}

	if len(reasons) != 0 {
		return nil, &Error{Kind: KindConflict, Reasons: reasons}
	}
	return &BookmarkList{Count: count, Bookmarks: added}, nil
}

// UpdateBookmarks rewrites the row identified by the path (user_id,
// url) once per batch item. url is always replaced; tags and text only
// when the item carries a non-empty value, so omitted fields keep their
// stored value.
func (s *Service) UpdateBookmarks(pathUserID, targetURL string, body []byte) (*BookmarkList, error) {
	count, items, err := decodeBookmarkBatch(body, true)
	if err != nil {
		return nil, err
	}

	reasons := make([]Reason, 0)
	updated := make([]BookmarkRecord, 0, len(items))
	for _, item := range items {
		item.Tags = strings.TrimSpace(item.Tags)
		item.Text = strings.TrimSpace(item.Text)
		item.UserID = strings.TrimSpace(item.UserID)

		if err := s.validate.Struct(&item); err != nil {
			return nil, malformed("bookmark is missing a required field")
		}
		if item.UserID != pathUserID {
			return nil, malformed("user_id does not match the request path")
		}

		exists, err := s.userExists(item.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			reasons = append(reasons,
				Reason{Message: msgUserNotFound},
				Reason{Message: msgBookmarkNotFound})
			continue
		}

		present, err := s.bookmarkExists(item.UserID, targetURL)
		if err != nil {
			return nil, err
		}
		if !present {
			reasons = append(reasons, Reason{Message: msgBookmarkNotFound})
			continue
		}

		q := squirrel.Update("bookmarks").Set("url", item.URL)
		if item.Tags != "" {
			q = q.Set("tags", item.Tags)
		}
		if item.Text != "" {
			q = q.Set("text", item.Text)
		}
		sql, args, err := q.
			Where(squirrel.Eq{"user_id": pathUserID, "url": targetURL}).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build sql")
		}
		res := s.db.Exec(sql, args...)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "update bookmark")
		}

		s.logger.Infow("bookmark updated", "user_id", pathUserID, "url", targetURL)
		updated = append(updated, item)
	}

	if len(reasons) != 0 {
		return nil, &Error{Kind: KindNotFound, Reasons: reasons}
	}
	return &BookmarkList{Count: count, Bookmarks: updated}, nil
}

// DeleteBookmark distinguishes an unknown owner (no bookmarks at all)
// from a known owner missing this particular url.
func (s *Service) DeleteBookmark(userID, bookmarkURL string, params url.Values) error {
	if len(params) != 0 {
		return malformed("unexpected query parameters")
	}

	has, err := s.userHasBookmarks(userID)
	if err != nil {
		return err
	}
	if !has {
		return notFound(msgUserNotFound)
	}

	sql, args, err := squirrel.
		Delete("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "url": bookmarkURL}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}
	res := s.db.Exec(sql, args...)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete bookmark")
	}
	if res.RowsAffected == 0 {
		return notFound(msgBookmarkNotFound)
	}

	s.logger.Infow("bookmark deleted", "user_id", userID, "url", bookmarkURL)
	return nil
}

func (s *Service) runBookmarkQuery(f *bookmarkFilter) (*BookmarkList, error) {
	sql, args, err := f.toSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]db.Bookmark, 0)
	res := s.db.Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "query bookmarks")
	}
	return toBookmarkList(rows), nil
}

func toBookmarkList(rows []db.Bookmark) *BookmarkList {
	out := make([]BookmarkRecord, len(rows))
	for i := range rows {
		out[i] = BookmarkRecord{
			URL:    rows[i].URL,
			Tags:   rows[i].Tags,
			Text:   rows[i].Text,
			UserID: rows[i].UserID,
		}
	}
	return &BookmarkList{Count: len(out), Bookmarks: out}
}

func decodeBookmarkBatch(body []byte, strictKeys bool) (int, []BookmarkRecord, error) {
	top, err := decodeObject(body)
	if err != nil {
		return 0, nil, err
	}
	countRaw, ok := top["count"]
	if !ok {
		return 0, nil, malformed("missing key: count")
	}
	bookmarksRaw, ok := top["bookmarks"]
	if !ok {
		return 0, nil, malformed("missing key: bookmarks")
	}

	count, err := decodeCount(countRaw)
	if err != nil {
		return 0, nil, err
	}
	if count <= 0 {
		return 0, nil, malformed("count must be positive")
	}

	if strictKeys {
		items, err := decodeObjectList(bookmarksRaw)
		if err != nil {
			return 0, nil, err
		}
		if hasUnknownKey(bookmarkAcceptedKeys, items) {
			return 0, nil, malformed(msgMalfunctionKeyExists)
		}
	}

	records := make([]BookmarkRecord, 0, count)
	if err := json.Unmarshal(bookmarksRaw, &records); err != nil {
		return 0, nil, malformed("bookmarks are malformed")
	}
	return count, records, nil
}
