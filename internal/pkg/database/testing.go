package database

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// OpenTestDB 在 t.TempDir() 中创建一个 SQLite 数据库并迁移给定的模型，测试结束时关闭
func OpenTestDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := Open(Config{Driver: DriverSQLite, DSN: dsn, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate test db: %v", err)
		}
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}
