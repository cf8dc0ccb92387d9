package data

import (
	"database/sql"
	"errors"

	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewReportRepo,
	NewReportCache,
	NewMQPublisher,
	NewReportIDGenerator,
)

// Data .
type Data struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewData .
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data"))
	if c == nil || c.GetDatabase() == nil || c.GetDatabase().GetSource() == "" {
		return nil, nil, errors.New("database configuration is missing")
	}

	// 初始化数据库
	db, err := gorm.Open(postgres.Open(c.GetDatabase().GetSource()), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(&reportPO{}); err != nil {
		return nil, nil, err
	}

	// 初始化 Redis（可选）
	var rdb *redis.Client
	if c.GetRedis().GetAddr() != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         c.GetRedis().GetAddr(),
			Password:     c.GetRedis().GetPassword(),
			DB:           int(c.GetRedis().GetDb()),
			ReadTimeout:  c.GetRedis().GetReadTimeout(),
			WriteTimeout: c.GetRedis().GetWriteTimeout(),
		})
		helper.Info("redis client initialized")
	}

	cleanup := newCleanup(helper, db.DB, rdb)

	return &Data{
		db:    db,
		redis: rdb,
	}, cleanup, nil
}

// NewRedisClient 暴露 Redis 客户端给 server 层，未配置时为 nil
func NewRedisClient(d *Data) *redis.Client {
	return d.redis
}

// newCleanup 依次关闭数据库与 Redis，单个失败只记录日志
func newCleanup(helper *log.Helper, sqlDB func() (*sql.DB, error), rdb *redis.Client) func() {
	return func() {
		if db, err := sqlDB(); err != nil {
			helper.Errorf("failed to obtain sql.DB from gorm: %v", err)
		} else if err := db.Close(); err != nil {
			helper.Errorf("failed to close database: %v", err)
		} else {
			helper.Info("database connection closed")
		}

		if rdb != nil {
			if err := rdb.Close(); err != nil {
				helper.Errorf("failed to close redis: %v", err)
				return
			}
			helper.Info("redis connection closed")
		}
	}
}
