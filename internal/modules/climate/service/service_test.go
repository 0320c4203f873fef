package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/types"
	"climate-api/internal/testutil"
)

func newDatasetService(t *testing.T, measurementsCSV string) *Service {
	t.Helper()
	db := testutil.NewDataset(t, testutil.StationsCSV, measurementsCSV)
	return NewService(repository.NewOpener(db, nil), nil)
}

func ptr(v float64) *float64 { return &v }

func TestDateWindow(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	w, err := svc.DateWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DateWindow{Start: "2016-08-23", Latest: "2017-08-23"}, w)
}

func TestDateWindow_LeapDay(t *testing.T) {
	svc := newDatasetService(t, `station,date,prcp,tobs
USC00519281,2015-02-27,0.1,70
USC00519281,2015-02-28,0.1,71
USC00519281,2016-02-29,0.1,72
`)

	w, err := svc.DateWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2015-02-28", w.Start)

	rows, err := svc.Precipitation(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2016-02-29", rows[0].Date)
	assert.Equal(t, "2015-02-28", rows[1].Date)
}

func TestEmptyDataset(t *testing.T) {
	db := testutil.EmptyDataset(t)
	svc := NewService(repository.NewOpener(db, nil), nil)
	ctx := context.Background()

	_, err := svc.DateWindow(ctx)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = svc.Precipitation(ctx)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = svc.MostActiveTemperatures(ctx)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	stations, err := svc.Stations(ctx)
	require.NoError(t, err)
	assert.Empty(t, stations)

	sum, err := svc.Summary(ctx, "2017-01-01")
	require.NoError(t, err)
	assert.Equal(t, types.TemperatureSummary{}, sum)
}

func TestPrecipitation_TrailingYearOnly(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	rows, err := svc.Precipitation(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 7)

	var nulls int
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Date, "2016-08-23")
		if r.Value == nil {
			nulls++
		}
	}
	assert.Equal(t, 2, nulls, "missing precipitation must stay null")
	assert.Equal(t, "2017-08-23", rows[0].Date)
	assert.Equal(t, "2016-08-23", rows[len(rows)-1].Date)
}

func TestStations_DistinctAndObservedOnly(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	stations, err := svc.Stations(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, s := range stations {
		assert.False(t, seen[s.ID], "duplicate station %s", s.ID)
		seen[s.ID] = true
	}
	assert.Len(t, stations, 3)
	assert.False(t, seen["USC00518838"], "station without observations must be excluded")
}

func TestMostActiveTemperatures(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	rows, err := svc.MostActiveTemperatures(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "USC00519281", r.StationID)
		assert.GreaterOrEqual(t, r.Date, "2016-08-23")
	}
	assert.Equal(t, []string{"2016-08-23", "2017-01-01", "2017-08-18"},
		[]string{rows[0].Date, rows[1].Date, rows[2].Date})
}

func TestMostActiveTemperatures_StrictMajorityWins(t *testing.T) {
	// A has more rows overall, but B has more inside the trailing year.
	svc := newDatasetService(t, `station,date,prcp,tobs
USC00519281,2010-01-01,0.1,60
USC00519281,2010-01-02,0.1,61
USC00519281,2010-01-03,0.1,62
USC00519281,2017-08-01,0.1,63
USC00519397,2017-08-01,0.1,70
USC00519397,2017-08-02,0.1,71
USC00519397,2017-08-03,0.1,72
`)

	rows, err := svc.MostActiveTemperatures(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "USC00519281", rows[0].StationID)
	assert.Equal(t, 63.0, rows[0].Temperature)
}

func TestSummary(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	sum, err := svc.Summary(context.Background(), "2017-01-01")
	require.NoError(t, err)
	assert.Equal(t, ptr(68), sum.Min)
	assert.Equal(t, ptr(76), sum.Avg)
	assert.Equal(t, ptr(82), sum.Max)
}

func TestSummary_NoMatchingRowsIsNull(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	sum, err := svc.Summary(context.Background(), "2018-01-01")
	require.NoError(t, err)
	assert.Nil(t, sum.Min)
	assert.Nil(t, sum.Avg)
	assert.Nil(t, sum.Max)
}

func TestRangeSummary_EndOnlyBoundsAverage(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)
	ctx := context.Background()

	ends := []struct {
		end string
		avg float64
	}{
		{end: "2017-01-01", avg: 69}, // 70, 68
		{end: "2017-08-18", avg: 72}, // 70, 68, 79 -> 72.33
		{end: "2017-08-23", avg: 76}, // every row from start
	}
	for _, tt := range ends {
		sum, err := svc.RangeSummary(ctx, "2017-01-01", tt.end)
		require.NoError(t, err, tt.end)
		assert.Equal(t, ptr(68), sum.Min, "min must ignore end %s", tt.end)
		assert.Equal(t, ptr(82), sum.Max, "max must ignore end %s", tt.end)
		assert.Equal(t, ptr(tt.avg), sum.Avg, "avg for end %s", tt.end)
	}
}

func TestRangeSummary_AverageNullWhileExtremesPresent(t *testing.T) {
	svc := newDatasetService(t, testutil.MeasurementsCSV)

	// No rows inside 2017-02-01..2017-02-28, but rows exist after it.
	sum, err := svc.RangeSummary(context.Background(), "2017-02-01", "2017-02-28")
	require.NoError(t, err)
	assert.Nil(t, sum.Avg)
	assert.Equal(t, ptr(79), sum.Min)
	assert.Equal(t, ptr(82), sum.Max)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 72.5, want: 73},
		{in: 72.49, want: 72},
		{in: 73.5, want: 74},
		{in: 72.0, want: 72},
		{in: -0.5, want: 0},
		{in: -1.5, want: -1},
	}
	for _, tt := range tests {
		got := roundHalfUp(&tt.in)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, "roundHalfUp(%v)", tt.in)
	}
	assert.Nil(t, roundHalfUp(nil))
}

// fakeRepo and fakeOpener track session lifetimes without a database.
type fakeRepo struct {
	repository.ClimateRepository
	latest   string
	avg      *float64
	err      error
	closed   int
	closeErr error
}

func (r *fakeRepo) LatestDate(context.Context) (string, bool, error) {
	return r.latest, r.latest != "", r.err
}

func (r *fakeRepo) TemperatureExtremes(context.Context, string) (*float64, *float64, error) {
	return ptr(60), ptr(80), r.err
}

func (r *fakeRepo) AverageTemperature(context.Context, string) (*float64, error) {
	return r.avg, r.err
}

func (r *fakeRepo) AverageTemperatureBetween(context.Context, string, string) (*float64, error) {
	return r.avg, r.err
}

func (r *fakeRepo) Close() error {
	r.closed++
	return r.closeErr
}

type fakeOpener struct {
	repo   *fakeRepo
	opened int
	err    error
}

func (o *fakeOpener) Open(context.Context) (repository.ClimateRepository, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened++
	return o.repo, nil
}

func TestSummary_RoundsAverageHalfUp(t *testing.T) {
	opener := &fakeOpener{repo: &fakeRepo{avg: ptr(72.5)}}
	svc := NewService(opener, nil)

	sum, err := svc.RangeSummary(context.Background(), "2017-01-01", "2017-01-02")
	require.NoError(t, err)
	assert.Equal(t, ptr(73), sum.Avg)
}

func TestSessionReleasedOnEveryPath(t *testing.T) {
	boom := errors.New("boom")

	t.Run("success", func(t *testing.T) {
		opener := &fakeOpener{repo: &fakeRepo{latest: "2017-08-23"}}
		_, err := NewService(opener, nil).DateWindow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, opener.opened)
		assert.Equal(t, 1, opener.repo.closed)
	})

	t.Run("query error", func(t *testing.T) {
		opener := &fakeOpener{repo: &fakeRepo{err: boom}}
		_, err := NewService(opener, nil).Summary(context.Background(), "2017-01-01")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, opener.repo.closed)
	})

	t.Run("empty dataset", func(t *testing.T) {
		opener := &fakeOpener{repo: &fakeRepo{}}
		_, err := NewService(opener, nil).DateWindow(context.Background())
		assert.ErrorIs(t, err, ErrEmptyDataset)
		assert.Equal(t, 1, opener.repo.closed)
	})

	t.Run("close error surfaces", func(t *testing.T) {
		opener := &fakeOpener{repo: &fakeRepo{latest: "2017-08-23", closeErr: boom}}
		_, err := NewService(opener, nil).DateWindow(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("open error", func(t *testing.T) {
		opener := &fakeOpener{err: boom}
		_, err := NewService(opener, nil).Stations(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}
