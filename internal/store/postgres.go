package store

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/db"
	"github.com/geoandes/landcover-cli/internal/table"
)

// exportColumns is the column order used for the COPY load; it mirrors the
// CSV schema.
var exportColumns = []string{"seq", "mean", "year", "parish", "province", "canton"}

// tableNameRe constrains export table names: identifiers only, no way to
// smuggle SQL through the DDL below.
var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ExportRows creates the target table if needed and bulk-loads combined
// table rows into it via COPY. Null means become SQL NULLs.
func ExportRows(ctx context.Context, pool db.Pool, tableName string, rows []table.Row) (int64, error) {
	if !tableNameRe.MatchString(tableName) {
		return 0, eris.Errorf("store: invalid export table name %q", tableName)
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+tableName+` (
			seq      INTEGER NOT NULL,
			mean     DOUBLE PRECISION,
			year     INTEGER NOT NULL,
			parish   TEXT NOT NULL,
			province TEXT NOT NULL,
			canton   TEXT NOT NULL,
			PRIMARY KEY (seq, year)
		)`)
	if err != nil {
		return 0, eris.Wrapf(err, "store: create table %s", tableName)
	}

	records := make([][]any, len(rows))
	for i, r := range rows {
		var mean any
		if r.Mean != nil {
			mean = *r.Mean
		}
		records[i] = []any{r.Seq, mean, r.Year, r.Parish, r.Province, r.Canton}
	}

	n, err := db.CopyFrom(ctx, pool, tableName, exportColumns, records)
	if err != nil {
		return 0, err
	}

	zap.L().Info("store: exported combined table",
		zap.String("table", tableName),
		zap.Int64("rows", n),
	)
	return n, nil
}
