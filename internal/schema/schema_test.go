package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{in: "mysql", want: DialectMySQL},
		{in: "MariaDB", want: DialectMySQL},
		{in: "postgresql", want: DialectPostgres},
		{in: " pg ", want: DialectPostgres},
		{in: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntrospect(t *testing.T) {
	tests := []struct {
		name        string
		dialect     Dialect
		schemaName  string
		pkPattern   string
		colsPattern string
	}{
		{
			name:        "mysql",
			dialect:     DialectMySQL,
			schemaName:  "shop",
			pkPattern:   "information_schema.KEY_COLUMN_USAGE",
			colsPattern: "information_schema.COLUMNS",
		},
		{
			name:        "postgres",
			dialect:     DialectPostgres,
			schemaName:  "public",
			pkPattern:   "information_schema.table_constraints",
			colsPattern: "information_schema.columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			mock.ExpectQuery(tt.pkPattern).
				WithArgs(tt.schemaName).
				WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name"}).
					AddRow("customers", "id").
					AddRow("orders", "id"))
			mock.ExpectQuery(tt.colsPattern).
				WithArgs(tt.schemaName).
				WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "type", "is_nullable"}).
					AddRow("customers", "id", "int", "NO").
					AddRow("customers", "email", "varchar(255)", "YES").
					AddRow("orders", "id", "int", "NO").
					AddRow("orders", "customer_id", "int", "NO"))

			s, err := Introspect(context.Background(), db, tt.dialect, tt.schemaName)
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())

			assert.Equal(t, []string{"customers", "orders"}, s.TableNames())
			assert.Equal(t, []Column{
				{Name: "id", Type: "int", IsPrimaryKey: true},
				{Name: "email", Type: "varchar(255)", Nullable: true},
			}, s.Tables["customers"].Columns)
			assert.False(t, s.Tables["orders"].Columns[1].IsPrimaryKey)
		})
	}
}

func TestIntrospect_Errors(t *testing.T) {
	t.Run("unsupported dialect", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = Introspect(context.Background(), db, Dialect("oracle"), "x")
		assert.ErrorContains(t, err, "unsupported dialect")
	})

	t.Run("primary key query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("KEY_COLUMN_USAGE").WillReturnError(errors.New("access denied"))

		_, err = Introspect(context.Background(), db, DialectMySQL, "shop")
		assert.ErrorContains(t, err, "failed to query primary keys")
	})

	t.Run("column query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("KEY_COLUMN_USAGE").WillReturnRows(sqlmock.NewRows([]string{"t", "c"}))
		mock.ExpectQuery("COLUMNS").WillReturnError(errors.New("boom"))

		_, err = Introspect(context.Background(), db, DialectMySQL, "shop")
		assert.ErrorContains(t, err, "failed to query columns")
	})
}

func TestConnInfo_DSN(t *testing.T) {
	mysqlInfo := ConnInfo{Dialect: DialectMySQL, Host: "db", Database: "shop", User: "reader", Password: "p@ss"}
	dsn := mysqlInfo.DSN()
	assert.Contains(t, dsn, "reader:p@ss@tcp(db:3306)/shop")
	assert.Contains(t, dsn, "timeout=3s")
	assert.Equal(t, "mysql", mysqlInfo.DriverName())
	assert.Equal(t, "shop", mysqlInfo.DefaultSchema())

	pgInfo := ConnInfo{Dialect: DialectPostgres, Host: "pg", Port: 6543, Database: "dw", User: "u", Password: "p w"}
	assert.Equal(t, "postgres://u:p%20w@pg:6543/dw?connect_timeout=3", pgInfo.DSN())
	assert.Equal(t, "pgx", pgInfo.DriverName())
	assert.Equal(t, "public", pgInfo.DefaultSchema())
}

func TestVerify(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	require.NoError(t, Verify(context.Background(), db))

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("gone away"))
	assert.ErrorContains(t, Verify(context.Background(), db), "connection check failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
