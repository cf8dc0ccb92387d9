package data

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"prngkit/internal/biz"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kratos/kratos/v2/log"
)

// EpochMsStart 时间起点为 +UTC 2026-01-18 00:00:00
const EpochMsStart = 1768665600000

type reportIDGenerator struct {
	seq atomic.Uint64
	now func() time.Time
	log *log.Helper
}

// NewReportIDGenerator 创建报告 ID 生成器
func NewReportIDGenerator(logger log.Logger) biz.ReportIDGenerator {
	return &reportIDGenerator{
		now: time.Now,
		log: log.NewHelper(log.With(logger, "module", "data/report_id")),
	}
}

// Generate 生成报告 ID
// 结构：[0(1位)][timestamp(45位)][name_hash(15位)][seq(3位)]
// - 最高位为0，保证为正数
// - 45位为时间戳（从 EpochMsStart 开始的毫秒数）
// - 15位为生成器名称的哈希值
// - 3位为进程内序号，同一毫秒内区分同名报告
func (g *reportIDGenerator) Generate(ctx context.Context, name string) (int64, error) {
	now := g.now()
	relativeTime := now.UnixMilli() - EpochMsStart
	if relativeTime < 0 {
		g.log.WithContext(ctx).Errorf("clock %s is before id epoch, refusing to generate report id", now.UTC().Format(time.RFC3339))
		return 0, fmt.Errorf("clock is before id epoch: %s", now.UTC().Format(time.RFC3339))
	}
	relativeTime &= 0x1FFFFFFFFFFF
	nameHash := int64(xxhash.Sum64String(name) & 0x7FFF)
	seq := int64((g.seq.Add(1) - 1) & 7)

	return relativeTime<<18 | nameHash<<3 | seq, nil
}
