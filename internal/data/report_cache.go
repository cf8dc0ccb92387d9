package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"prngkit/internal/biz"
	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// keyReportPrefix 报告缓存 key 前缀，后接参数指纹
const keyReportPrefix = "prng:report:"

type reportCache struct {
	data *Data
	ttl  time.Duration
	log  *log.Helper
}

// NewReportCache 创建报告缓存，Redis 未配置时读写均为空操作
func NewReportCache(data *Data, c *conf.Data, logger log.Logger) biz.ReportCache {
	return &reportCache{
		data: data,
		ttl:  c.GetRedis().GetCacheTTL(),
		log:  log.NewHelper(log.With(logger, "module", "data/report_cache")),
	}
}

func reportKey(req biz.ValidationRequest) string {
	return keyReportPrefix + requestFingerprint(req)
}

// Get 读取缓存，未命中返回 nil, nil
func (c *reportCache) Get(ctx context.Context, req biz.ValidationRequest) (*biz.ValidationReport, error) {
	if c.data.redis == nil {
		return nil, nil
	}

	val, err := c.data.redis.Get(ctx, reportKey(req)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var report biz.ValidationReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Set 写入缓存
func (c *reportCache) Set(ctx context.Context, req biz.ValidationRequest, report *biz.ValidationReport) error {
	if c.data.redis == nil {
		return nil
	}

	val, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err := c.data.redis.Set(ctx, reportKey(req), val, c.ttl).Err(); err != nil {
		c.log.Errorf("cache report failed: id=%d err=%v", report.ID, err)
		return err
	}
	return nil
}
