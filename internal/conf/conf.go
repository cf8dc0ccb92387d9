package conf

import (
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
)

// 默认校验参数
const (
	DefaultSampleSize = 10000
	DefaultTolerance  = 0.05
	DefaultBins       = 10
)

// DefaultCheckpoints 默认记录第 1、15、1000 次抽取
var DefaultCheckpoints = []int{1, 15, 1000}

// Bootstrap 配置根节点
type Bootstrap struct {
	Server     *Server     `json:"server"`
	Data       *Data       `json:"data"`
	Validation *Validation `json:"validation"`
}

func (b *Bootstrap) GetServer() *Server {
	if b == nil {
		return nil
	}
	return b.Server
}

func (b *Bootstrap) GetData() *Data {
	if b == nil {
		return nil
	}
	return b.Data
}

func (b *Bootstrap) GetValidation() *Validation {
	if b == nil {
		return nil
	}
	return b.Validation
}

// Server 服务端配置
type Server struct {
	HTTP *Endpoint `json:"http"`
	GRPC *Endpoint `json:"grpc"`
}

func (s *Server) GetHTTP() *Endpoint {
	if s == nil {
		return nil
	}
	return s.HTTP
}

func (s *Server) GetGRPC() *Endpoint {
	if s == nil {
		return nil
	}
	return s.GRPC
}

// Endpoint 监听配置
type Endpoint struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"` // 如 "1s"
}

func (e *Endpoint) GetNetwork() string {
	if e == nil {
		return ""
	}
	return e.Network
}

func (e *Endpoint) GetAddr() string {
	if e == nil {
		return ""
	}
	return e.Addr
}

func (e *Endpoint) GetTimeout() time.Duration {
	if e == nil {
		return 0
	}
	return parseDuration(e.Timeout)
}

// Data 数据层配置
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
	Rabbitmq *Rabbitmq `json:"rabbitmq"`
}

func (d *Data) GetDatabase() *Database {
	if d == nil {
		return nil
	}
	return d.Database
}

func (d *Data) GetRedis() *Redis {
	if d == nil {
		return nil
	}
	return d.Redis
}

func (d *Data) GetRabbitmq() *Rabbitmq {
	if d == nil {
		return nil
	}
	return d.Rabbitmq
}

// Database 数据库配置
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

func (d *Database) GetSource() string {
	if d == nil {
		return ""
	}
	return d.Source
}

// Redis Redis 配置
type Redis struct {
	Addr         string `json:"addr"`
	Password     string `json:"password"`
	Db           int32  `json:"db"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	CacheTTL     string `json:"cache_ttl"` // 报告缓存过期时间，空表示不过期
}

func (r *Redis) GetAddr() string {
	if r == nil {
		return ""
	}
	return r.Addr
}

func (r *Redis) GetPassword() string {
	if r == nil {
		return ""
	}
	return r.Password
}

func (r *Redis) GetDb() int32 {
	if r == nil {
		return 0
	}
	return r.Db
}

func (r *Redis) GetReadTimeout() time.Duration {
	if r == nil {
		return 0
	}
	return parseDuration(r.ReadTimeout)
}

func (r *Redis) GetWriteTimeout() time.Duration {
	if r == nil {
		return 0
	}
	return parseDuration(r.WriteTimeout)
}

func (r *Redis) GetCacheTTL() time.Duration {
	if r == nil {
		return 0
	}
	return parseDuration(r.CacheTTL)
}

// Rabbitmq RabbitMQ 配置
type Rabbitmq struct {
	Url      string `json:"url"`
	Exchange string `json:"exchange"`
	Queue    string `json:"queue"`
}

func (r *Rabbitmq) GetUrl() string {
	if r == nil {
		return ""
	}
	return r.Url
}

// Validation 校验参数与预置生成器
type Validation struct {
	SampleSize  int          `json:"sample_size"`
	Tolerance   float64      `json:"tolerance"`
	Checkpoints []int        `json:"checkpoints"`
	Bins        int          `json:"bins"`
	Generators  []*Generator `json:"generators"`
}

func (v *Validation) GetSampleSize() int {
	if v == nil || v.SampleSize == 0 {
		return DefaultSampleSize
	}
	return v.SampleSize
}

func (v *Validation) GetTolerance() float64 {
	if v == nil || v.Tolerance == 0 {
		return DefaultTolerance
	}
	return v.Tolerance
}

func (v *Validation) GetCheckpoints() []int {
	if v == nil || v.Checkpoints == nil {
		return DefaultCheckpoints
	}
	return v.Checkpoints
}

func (v *Validation) GetBins() int {
	if v == nil || v.Bins == 0 {
		return DefaultBins
	}
	return v.Bins
}

func (v *Validation) GetGenerators() []*Generator {
	if v == nil {
		return nil
	}
	return v.Generators
}

// Generator 生成器配置，shuffle 通过 primary/secondary 递归嵌套
type Generator struct {
	Name      string     `json:"name"`
	Kind      string     `json:"kind"` // mcg | shuffle | xorshift
	Seed      uint64     `json:"seed"`
	Constant  uint32     `json:"constant"`
	TableSize int        `json:"table_size"`
	Primary   *Generator `json:"primary"`
	Secondary *Generator `json:"secondary"`
}

// Load 从文件加载配置
func Load(path string) (*Bootstrap, error) {
	c := config.New(
		config.WithSource(
			file.NewSource(path),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		return nil, fmt.Errorf("scan config %s: %w", path, err)
	}
	return &bc, nil
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
