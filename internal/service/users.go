package service

import (
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/db"
)

var userAcceptedKeys = map[string]struct{}{
	"user_id":   {},
	"user_name": {},
}

type (
	UserRecord struct {
		UserID   string `json:"user_id" validate:"required"`
		UserName string `json:"user_name" validate:"required"`
	}

	UserList struct {
		Count int          `json:"count"`
		Users []UserRecord `json:"users"`
	}
)

func (s *Service) ListUsers() (*UserList, error) {
	sql, args, err := squirrel.
		Select("user_id", "user_name").From("users").
		OrderBy("user_id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]db.User, 0)
	res := s.db.Raw(sql, args...).Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "query users")
	}

	users := make([]UserRecord, len(rows))
	for i := range rows {
		users[i] = UserRecord{
			UserID:   rows[i].UserID,
			UserName: rows[i].UserName,
		}
	}
	return &UserList{Count: len(users), Users: users}, nil
}

// CreateUsers decodes and validates a {count, users} batch and inserts
// every user_id not yet present. Items are committed one by one: a
// duplicate in the batch leaves its siblings inserted and shows up in
// the reasons list instead.
func (s *Service) CreateUsers(body []byte) (*UserList, error) {
	top, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if len(top) != 2 {
		return nil, malformed("expected exactly the keys count and users")
	}
	countRaw, ok := top["count"]
	if !ok {
		return nil, malformed("missing key: count")
	}
	usersRaw, ok := top["users"]
	if !ok {
		return nil, malformed("missing key: users")
	}

	count, err := decodeCount(countRaw)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, malformed("count must not be zero")
	}

	items, err := decodeObjectList(usersRaw)
	if err != nil {
		return nil, err
	}
	if hasUnknownKey(userAcceptedKeys, items) {
		return nil, malformed(msgMalfunctionKeyExists)
	}
	if len(items) != count {
		return nil, malformed("count does not match the number of users")
	}

	users := make([]UserRecord, 0, count)
	if err := json.Unmarshal(usersRaw, &users); err != nil {
		return nil, malformed("users are malformed")
	}
	for i := range users {
		if err := s.validate.Struct(&users[i]); err != nil {
			return nil, malformed("user is missing a required field")
		}
	}

	reasons := make([]Reason, 0)
	added := make([]UserRecord, 0, count)
	for _, user := range users {
		exists, err := s.userExists(user.UserID)
		if err != nil {
			return nil, err
		}
		if exists {
			reasons = append(reasons, Reason{Message: msgUserAlreadyExists})
			continue
		}

		sql, args, err := squirrel.
			Insert("users").
			Columns("user_id", "user_name").
			Values(user.UserID, user.UserName).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build sql")
		}
		res := s.db.Exec(sql, args...)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "insert user")
		}

		s.logger.Infow("user created", "user_id", user.UserID)
		added = append(added, user)
	}

	if len(reasons) != 0 {
		return nil, &Error{Kind: KindConflict, Reasons: reasons}
	}
	return &UserList{Count: count, Users: added}, nil
}

// DeleteUser removes the user row and, when it existed, every bookmark
// owned by it.
func (s *Service) DeleteUser(userID string) error {
	sql, args, err := squirrel.
		Delete("users").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}
	res := s.db.Exec(sql, args...)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return notFound(msgUserNotFound)
	}

	sql, args, err = squirrel.
		Delete("bookmarks").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build sql")
	}
	res = s.db.Exec(sql, args...)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user bookmarks")
	}

	s.logger.Infow("user deleted", "user_id", userID, "bookmarks_removed", res.RowsAffected)
	return nil
}
