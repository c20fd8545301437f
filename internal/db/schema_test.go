package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchemaVersion(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		want      int64
		expectErr error
		anyErr    bool
	}{
		{
			name: "current schema",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(appliedVersionQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))
			},
			want: 1,
		},
		{
			name: "newer schema is accepted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(appliedVersionQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(3)))
			},
			want: 1,
		},
		{
			name: "outdated schema",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(appliedVersionQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(0)))
			},
			want:      1,
			expectErr: ErrSchemaOutdated,
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(appliedVersionQuery)).
					WillReturnError(errors.New("relation \"goose_db_version\" does not exist"))
			},
			want:   1,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { sqlDB.Close() })

			tt.setup(mock)

			err = CheckSchemaVersion(context.Background(), sqlDB, tt.want)
			switch {
			case tt.expectErr != nil:
				assert.ErrorIs(t, err, tt.expectErr)
				assert.EqualError(t, err, "have 0, want 1: database schema is outdated")
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
