package migrations

import (
	_ "embed"

	"github.com/horizen-tools/poolscope/internal/db"
)

//go:embed 001_pool_series.sql
var mig001 string

func RunMigrations(dbPath string) error {
	migrations := []db.Migration{
		{
			ID:  "001_pool_series.sql",
			SQL: mig001,
		},
	}

	return db.RunMigrations(dbPath, migrations)
}
