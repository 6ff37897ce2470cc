// Package service implements the query/validation engine behind the
// bookmarking endpoints: strict request decoding, filter construction,
// and the cross-record checks (owner exists, (user_id, url) unique) the
// store schema does not enforce itself.
package service

import (
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/go-playground/validator"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	NewService,
)

type Service struct {
	db       *gorm.DB
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewService(db *gorm.DB, l *zap.SugaredLogger) *Service {
	return &Service{
		db:       db,
		validate: validator.New(),
		logger:   l,
	}
}

func (s *Service) userExists(userID string) (bool, error) {
	sql, args, err := squirrel.
		Select("COUNT(*)").From("users").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build sql")
	}

	var n int64
	res := s.db.Raw(sql, args...).Scan(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "query users")
	}
	return n > 0, nil
}

func (s *Service) bookmarkExists(userID, url string) (bool, error) {
	sql, args, err := squirrel.
		Select("COUNT(*)").From("bookmarks").
		Where(squirrel.Eq{"user_id": userID, "url": url}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build sql")
	}

	var n int64
	res := s.db.Raw(sql, args...).Scan(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "query bookmarks")
	}
	return n > 0, nil
}

func (s *Service) userHasBookmarks(userID string) (bool, error) {
	sql, args, err := squirrel.
		Select("COUNT(*)").From("bookmarks").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "build sql")
	}

	var n int64
	res := s.db.Raw(sql, args...).Scan(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "query bookmarks")
	}
	return n > 0, nil
}

// decodeObject keeps the raw key set visible so callers can reject
// payloads carrying keys outside their allow-list.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, malformed("request body is not a JSON object")
	}
	return obj, nil
}

func decodeObjectList(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	items := make([]map[string]json.RawMessage, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("expected a list of JSON objects")
	}
	return items, nil
}

func hasUnknownKey(accepted map[string]struct{}, objects []map[string]json.RawMessage) bool {
	for _, obj := range objects {
		for key := range obj {
			if _, ok := accepted[key]; !ok {
				return true
			}
		}
	}
	return false
}

func decodeCount(raw json.RawMessage) (int, error) {
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, malformed("count is not a number")
	}
	return count, nil
}
