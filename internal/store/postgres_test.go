package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoandes/landcover-cli/internal/table"
)

func fp(v float64) *float64 { return &v }

func TestExportRows_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS zonal_means").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"zonal_means"}, exportColumns).
		WillReturnResult(2)

	rows := []table.Row{
		{Seq: 1, Mean: fp(5), Year: 2020, Parish: "Cumbaya", Province: "Pichincha", Canton: "Quito"},
		{Seq: 2, Mean: nil, Year: 2020, Parish: "Nayon", Province: "Pichincha", Canton: "Quito"},
	}

	n, err := ExportRows(context.Background(), mock, "zonal_means", rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRows_InvalidTableName(t *testing.T) {
	_, err := ExportRows(context.Background(), nil, "zonal; DROP TABLE runs", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid export table name")
}

func TestExportRows_CreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
		WillReturnError(fmt.Errorf("permission denied"))

	_, err = ExportRows(context.Background(), mock, "zonal_means", []table.Row{{Seq: 1, Year: 2020}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table")
}

func TestExportRows_EmptyRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	n, err := ExportRows(context.Background(), mock, "zonal_means", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
