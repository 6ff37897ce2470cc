package test_functional

import (
	"context"
	"net/url"

	"github.com/jackc/pgx/v4"
)

var (
	AppBaseURL url.URL
	DBConn     *pgx.Conn
)

func FlushDB() {
	ctx := context.Background()
	if _, err := DBConn.Exec(ctx, "DELETE FROM bookmarks"); err != nil {
		panic(err)
	}
	if _, err := DBConn.Exec(ctx, "DELETE FROM users"); err != nil {
		panic(err)
	}
}
