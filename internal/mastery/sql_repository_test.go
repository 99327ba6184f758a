package mastery

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/database"
)

func TestSQLRepository_Load(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		userID    string
		setupMock func(mock sqlmock.Sqlmock)
		want      Map
		wantErr   bool
	}{
		{
			name:   "mysql row",
			driver: "mysql",
			userID: "user-1",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM mastery_maps WHERE user_id = \\? AND deck = \\?").
					WithArgs("user-1", "basic_kanji").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).
						AddRow(`{"mountain":{"repetitions":1,"interval":1,"ease":2.6,"lastReviewed":null,"nextDue":0,"progressKana":20,"progressKanji":0}}`))
			},
			want: Map{"mountain": {Repetitions: 1, IntervalDays: 1, Ease: 2.6, ReadingProgress: 20}},
		},
		{
			name:   "postgres placeholders and anonymous user",
			driver: "postgres",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM mastery_maps WHERE user_id = \\$1 AND deck = \\$2").
					WithArgs(AnonymousUser, "basic_kanji").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{}`))
			},
			want: Map{},
		},
		{
			name:   "no row yet",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM mastery_maps").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}))
			},
			want: Map{},
		},
		{
			name:   "broken payload",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM mastery_maps").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`not json`))
			},
			wantErr: true,
		},
		{
			name:   "db error",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT payload FROM mastery_maps").
					WillReturnError(fmt.Errorf("access denied"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewDBRepository(sqlx.NewDb(db, tt.driver), 0)
			tt.setupMock(mock)

			got, err := repo.Load(context.Background(), tt.userID, "basic_kanji")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLRepository_Save(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	records := Map{"mountain": {Repetitions: 1, IntervalDays: 1, Ease: 2.6}}
	payload := `{"mountain":{"repetitions":1,"interval":1,"ease":2.6,"lastReviewed":null,"nextDue":0,"progressKana":0,"progressKanji":0}}`

	tests := []struct {
		name      string
		driver    string
		attempts  uint
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name:   "mysql upsert",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO mastery_maps .* ON DUPLICATE KEY UPDATE").
					WithArgs("user-1", "basic_kanji", payload, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:   "postgres upsert",
			driver: "postgres",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO mastery_maps .* VALUES \\(\\$1, \\$2, \\$3, \\$4\\)\\s+ON CONFLICT \\(user_id, deck\\) DO UPDATE").
					WithArgs("user-1", "basic_kanji", payload, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:     "transient failure is retried",
			driver:   "mysql",
			attempts: 2,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO mastery_maps").
					WillReturnError(fmt.Errorf("dial tcp: connection refused"))
				mock.ExpectExec("INSERT INTO mastery_maps").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:     "permanent failure is not retried",
			driver:   "mysql",
			attempts: 2,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO mastery_maps").
					WillReturnError(fmt.Errorf("table mastery_maps doesn't exist"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewDBRepository(sqlx.NewDb(db, tt.driver), tt.attempts)
			repo.now = fixedClock(now)
			tt.setupMock(mock)

			err = repo.Save(context.Background(), "user-1", "basic_kanji", records)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteRepository(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "mastery.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	repo := NewSQLiteRepository(db)

	got, err := repo.Load(ctx, "", "basic_kanji")
	require.NoError(t, err)
	assert.Empty(t, got)

	reviewed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := Map{"mountain": {Repetitions: 1, IntervalDays: 1, Ease: 2.6, LastReviewedAt: &reviewed, DueAt: reviewed.Add(24 * time.Hour)}}
	require.NoError(t, repo.Save(ctx, "", "basic_kanji", first))
	second := Map{"mountain": {Repetitions: 2, IntervalDays: 6, Ease: 2.7, LastReviewedAt: &reviewed, DueAt: reviewed.Add(6 * 24 * time.Hour)}}
	require.NoError(t, repo.Save(ctx, "", "basic_kanji", second))

	got, err = repo.Load(ctx, "", "basic_kanji")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	other, err := repo.Load(ctx, "user-1", "basic_kanji")
	require.NoError(t, err)
	assert.Empty(t, other, "records are kept per user")
}
