package pg_test

import (
	"context"
	"testing"
	"time"

	"carbonprice-service/internal/domain"
	"carbonprice-service/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
)

func Test_HistoryRepo_AppendAndList(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()

	repo := pg.NewHistoryRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	change := 1.5

	recs := []domain.HistoryRecord{
		{Price: 78.25, Currency: "EUR", Source: "ICE (Intercontinental Exchange)", Timestamp: base},
		{Price: 78.90, Currency: "EUR", Source: "CarbonCredits.com", Timestamp: base.Add(time.Minute), Change24h: &change},
		{Price: 79.10, Currency: "EUR", Source: "ICE (Intercontinental Exchange)", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		require.NoError(t, repo.Append(ctx, rec))
	}

	got, err := repo.List(ctx, base, base.Add(time.Hour), "", 100)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 78.25, got[0].Price)
	require.True(t, got[0].Timestamp.Before(got[1].Timestamp))
	require.Nil(t, got[0].Change24h)
	require.NotNil(t, got[1].Change24h)
	require.Equal(t, 1.5, *got[1].Change24h)
	require.False(t, got[0].InsertedAt.IsZero())
}

func Test_HistoryRepo_SourceFilterAndLimit(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()

	repo := pg.NewHistoryRepo(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		src := "Synthetic"
		if i%2 == 0 {
			src = "ICE (Intercontinental Exchange)"
		}
		require.NoError(t, repo.Append(ctx, domain.HistoryRecord{
			Price:     78 + float64(i),
			Currency:  "EUR",
			Source:    src,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := repo.List(ctx, base, base.Add(time.Hour), "Synthetic", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, rec := range got {
		require.Equal(t, "Synthetic", rec.Source)
	}

	got, err = repo.List(ctx, base, base.Add(time.Hour), "", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func Test_HistoryRepo_EmptyRange(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()

	repo := pg.NewHistoryRepo(db)
	got, err := repo.List(context.Background(),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC),
		"", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
