package setup

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prize-wheel/internal/domain"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, MigrateDB(db))
	return db
}

func TestSeedDemo_Idempotent(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, SeedDemo(db))
	require.NoError(t, SeedDemo(db))

	var wheels []domain.Wheel
	require.NoError(t, db.Find(&wheels).Error)
	require.Len(t, wheels, 1)
	assert.Equal(t, DemoWheelSlug, wheels[0].Slug)
	assert.True(t, wheels[0].Enabled)

	var prizes []domain.Prize
	require.NoError(t, db.Where("wheel_id = ?", wheels[0].ID).Find(&prizes).Error)
	assert.Len(t, prizes, len(demoPrizes))

	noWin := 0
	for _, p := range prizes {
		if p.NoWin {
			noWin++
			assert.Equal(t, "Try Again", p.Label)
		}
	}
	assert.Equal(t, 1, noWin)
}

func TestEnsureAdmin(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, EnsureAdmin(db, "", "ignored"))
	require.NoError(t, EnsureAdmin(db, "admin", "admin123"))
	require.NoError(t, EnsureAdmin(db, "admin", "changed"))

	var admins []domain.Admin
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("admin123")))
}

func TestMysqlDSN(t *testing.T) {
	_, err := mysqlDSN(DBOptions{Password: "x"})
	assert.Error(t, err)

	dsn, err := mysqlDSN(DBOptions{User: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(127.0.0.1:3306)/prize_wheel?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
