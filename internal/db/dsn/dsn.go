// Package dsn builds data source names and gorm dialectors from the database configuration.
package dsn

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Onboard360/Onboard360/internal/config"
)

// Create builds the MySQL Data Source Name from the configuration.
func Create(dbCfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		dbCfg.DB.User,
		dbCfg.DB.Password,
		dbCfg.DB.Host,
		dbCfg.DB.Port,
		dbCfg.DB.Name,
		dbCfg.DB.Extras,
	)
}

// Postgres builds the key/value PostgreSQL DSN. Extras are appended as is,
// for example "sslmode=disable TimeZone=UTC".
func Postgres(dbCfg *config.Config) string {
	parts := []string{
		"host=" + dbCfg.DB.Host,
		fmt.Sprintf("port=%d", dbCfg.DB.Port),
		"user=" + dbCfg.DB.User,
		"password=" + dbCfg.DB.Password,
		"dbname=" + dbCfg.DB.Name,
	}

	if dbCfg.DB.Extras != "" {
		parts = append(parts, dbCfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// Dialector returns the gorm dialector for DB.GormEngine.
func Dialector(dbCfg *config.Config) (gorm.Dialector, error) {
	switch dbCfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(Create(dbCfg)), nil
	case config.EnginePostgres:
		return postgres.Open(Postgres(dbCfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(dbCfg.DB.Name), nil
	default:
		return nil, config.ErrUnknownEngine
	}
}
