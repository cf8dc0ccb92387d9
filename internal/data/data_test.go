package data

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"prngkit/internal/biz"
	"prngkit/internal/conf"
	"prngkit/pkg/stattest"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func testSpec() biz.GeneratorSpec {
	return biz.GeneratorSpec{
		Name:      "maclaren-marsaglia",
		Kind:      biz.KindShuffle,
		TableSize: 64,
		Primary:   &biz.GeneratorSpec{Kind: biz.KindMCG, Seed: 564853681, Constant: 790941697},
		Secondary: &biz.GeneratorSpec{Kind: biz.KindMCG, Seed: 10449689, Constant: 176234371},
	}
}

func testReport() *biz.ValidationReport {
	observed := stattest.Moments{Mean: 0.5016, Variance: 0.0829, Skewness: -0.0029, Kurtosis: -1.1968}
	return &biz.ValidationReport{
		ID:          42,
		Name:        "maclaren-marsaglia",
		Generator:   testSpec(),
		SampleSize:  10000,
		Tolerance:   0.05,
		Observed:    observed,
		Expected:    stattest.Uniform,
		Deviation:   observed.Deviation(stattest.Uniform),
		Passed:      true,
		Checkpoints: []biz.Checkpoint{{Index: 1, Value: 0.1831841836683452}, {Index: 15, Value: 0.9334673513658345}},
		ChiSquare:   stattest.ChiSquareResult{Bins: 10, Statistic: 4.2, PValue: 0.89},
		CreatedAt:   time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestFingerprint(t *testing.T) {
	req := biz.ValidationRequest{
		Name:        "maclaren-marsaglia",
		Generator:   testSpec(),
		SampleSize:  10000,
		Tolerance:   0.05,
		Checkpoints: []int{15, 1},
		Bins:        10,
	}

	fp := requestFingerprint(req)
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, reportFingerprint(testReport()), "checkpoint order must not matter")

	changed := req
	changed.SampleSize = 20000
	assert.NotEqual(t, fp, requestFingerprint(changed))

	changed = req
	changed.Generator.Secondary = &biz.GeneratorSpec{Kind: biz.KindMCG, Seed: 10449690, Constant: 176234371}
	assert.NotEqual(t, fp, requestFingerprint(changed))

	changed = req
	changed.Tolerance = 0.02
	assert.NotEqual(t, fp, requestFingerprint(changed))

	assert.Equal(t, keyReportPrefix+fp, reportKey(req))
}

func TestReportPO_RoundTrip(t *testing.T) {
	report := testReport()

	po, err := toReportPO(report)
	require.NoError(t, err)
	assert.Equal(t, "validation_reports", po.TableName())
	assert.Equal(t, reportFingerprint(report), po.Fingerprint)
	assert.JSONEq(t, `[{"index":1,"value":0.1831841836683452},{"index":15,"value":0.9334673513658345}]`, string(po.Checkpoints))

	got, err := fromReportPO(po)
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestFromReportPO_BadGenerator(t *testing.T) {
	_, err := fromReportPO(&reportPO{ID: 1, Generator: []byte("{")})
	assert.Error(t, err)
}

func TestReportIDGenerator(t *testing.T) {
	g := NewReportIDGenerator(log.DefaultLogger).(*reportIDGenerator)
	g.now = func() time.Time { return time.UnixMilli(EpochMsStart + 1000) }

	ctx := context.Background()
	seen := make(map[int64]bool)
	for i := 0; i < 8; i++ {
		id, err := g.Generate(ctx, "mcg")
		require.NoError(t, err)
		assert.Positive(t, id)
		assert.Equal(t, int64(1000), id>>18)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	a, _ := g.Generate(ctx, "mcg")
	b, _ := g.Generate(ctx, "xorshift")
	assert.NotEqual(t, (a>>3)&0x7FFF, (b>>3)&0x7FFF)
}

func TestReportEvent(t *testing.T) {
	report := testReport()

	event, err := reportEvent(report)
	require.NoError(t, err)

	body, err := proto.Marshal(event)
	require.NoError(t, err)

	var decoded structpb.Struct
	require.NoError(t, proto.Unmarshal(body, &decoded))
	fields := decoded.AsMap()

	assert.Equal(t, eventReportCreated, fields["event_type"])
	assert.Equal(t, strconv.FormatInt(report.ID, 10), fields["report_id"])
	assert.Equal(t, report.Generator.Describe(), fields["generator"])
	assert.Equal(t, true, fields["passed"])
	assert.Equal(t, float64(10000), fields["sample_size"])
	assert.Equal(t, "2026-10-19T12:00:00Z", fields["created_at"])
}

func TestNewMQPublisher_Unconfigured(t *testing.T) {
	pub, cleanup, err := NewMQPublisher(&conf.Data{}, log.DefaultLogger)
	require.NoError(t, err)
	defer cleanup()

	_, ok := pub.(*noopMQPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.PublishReportCreated(context.Background(), testReport()))
}

func TestReportCache_WithoutRedis(t *testing.T) {
	cache := NewReportCache(&Data{}, nil, log.DefaultLogger)
	ctx := context.Background()
	req := biz.ValidationRequest{Name: "mcg", Generator: testSpec()}

	require.NoError(t, cache.Set(ctx, req, testReport()))
	got, err := cache.Get(ctx, req)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewData_MissingDatabase(t *testing.T) {
	_, _, err := NewData(&conf.Data{}, log.DefaultLogger)
	assert.EqualError(t, err, "database configuration is missing")
}

func TestReportIDGenerator_ClockBeforeEpoch(t *testing.T) {
	g := NewReportIDGenerator(log.DefaultLogger).(*reportIDGenerator)
	g.now = func() time.Time { return time.UnixMilli(EpochMsStart - 1) }

	id, err := g.Generate(context.Background(), "mcg")
	require.Error(t, err)
	assert.Zero(t, id)
}

func TestCleanup_ClosesRedisWhenDatabaseFails(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	helper := log.NewHelper(log.DefaultLogger)

	cleanup := newCleanup(helper, func() (*sql.DB, error) {
		return nil, errors.New("driver gone")
	}, rdb)
	cleanup()

	assert.ErrorIs(t, rdb.Ping(context.Background()).Err(), redis.ErrClosed)
}

func TestCleanup_WithoutRedis(t *testing.T) {
	helper := log.NewHelper(log.DefaultLogger)
	cleanup := newCleanup(helper, func() (*sql.DB, error) {
		return nil, errors.New("driver gone")
	}, nil)

	assert.NotPanics(t, cleanup)
}
