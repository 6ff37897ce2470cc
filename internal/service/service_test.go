package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.Nil(t, err)

	require.Nil(t, conn.AutoMigrate(&db.User{}))
	require.Nil(t, conn.AutoMigrate(&db.Bookmark{}))

	return NewService(conn, zap.NewNop().Sugar())
}

func insertUser(t *testing.T, s *Service, userID, userName string) {
	t.Helper()
	res := s.db.Exec("INSERT INTO users (user_id, user_name) VALUES (?, ?)", userID, userName)
	require.Nil(t, res.Error)
}

func insertBookmark(t *testing.T, s *Service, url, tags, text, userID string) {
	t.Helper()
	res := s.db.Exec("INSERT INTO bookmarks (url, tags, text, user_id) VALUES (?, ?, ?, ?)", url, tags, text, userID)
	require.Nil(t, res.Error)
}

func countRows(t *testing.T, s *Service, table string) int64 {
	t.Helper()
	var n int64
	res := s.db.Raw("SELECT COUNT(*) FROM " + table).Scan(&n)
	require.Nil(t, res.Error)
	return n
}
