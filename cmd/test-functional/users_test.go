package test_functional

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
)

func TestUsersCrud(t *testing.T) {
	createURL := AppBaseURL
	createURL.Path = "/bookmarking"

	t.Run("successful create", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		resp, err := resty.New().
			R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetBody(`
			{"count": 1, "users": [{"user_id": "u1", "user_name": "Alice"}]}
		`).
			Post(createURL.String())
		assert.Nil(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode())
		assert.JSONEq(t, `{"count":1,"users":[{"user_id":"u1","user_name":"Alice"}]}`, resp.String())

		var userName string
		err = DBConn.QueryRow(ctx, "SELECT user_name FROM users WHERE user_id=$1", "u1").Scan(&userName)
		assert.Nil(t, err)
		assert.Equal(t, "Alice", userName)
	})

	t.Run("count mismatch inserts nothing", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		resp, err := resty.New().
			R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetBody(`
			{"count": 2, "users": [{"user_id": "u1", "user_name": "Alice"}]}
		`).
			Post(createURL.String())
		assert.Nil(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

		var n int
		err = DBConn.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
		assert.Nil(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("delete cascades to bookmarks", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		_, err := DBConn.Exec(ctx, "INSERT INTO users (user_id, user_name) VALUES ('u1', 'Alice')")
		assert.Nil(t, err)
		for _, u := range []string{"http://a", "http://b", "http://c"} {
			_, err = DBConn.Exec(ctx, "INSERT INTO bookmarks (url, tags, text, user_id) VALUES ($1, '', '', 'u1')", u)
			assert.Nil(t, err)
		}

		deleteURL := AppBaseURL
		deleteURL.Path = "/bookmarking/u1"
		resp, err := resty.New().
			R().
			SetContext(ctx).
			Delete(deleteURL.String())
		assert.Nil(t, err)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode())
		assert.Empty(t, resp.String())

		var n int
		err = DBConn.QueryRow(ctx, "SELECT COUNT(*) FROM bookmarks WHERE user_id='u1'").Scan(&n)
		assert.Nil(t, err)
		assert.Equal(t, 0, n)
	})
}
