package biz

import (
	"context"
	stderrors "errors"
	"math"
	"runtime"
	"sort"
	"time"

	"prngkit/internal/conf"
	"prngkit/pkg/random"
	"prngkit/pkg/stattest"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// MaxSampleSize 单次校验最多抽取次数
const MaxSampleSize = 10_000_000

// cancelCheckInterval 抽样时每隔多少次检查一次 ctx
const cancelCheckInterval = 1 << 12

// Checkpoint 指定抽取序号（从 1 开始）上的值
type Checkpoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// ValidationRequest 校验请求
// 零值字段使用配置中的默认值
type ValidationRequest struct {
	Name        string        `json:"name"`
	Generator   GeneratorSpec `json:"generator"`
	SampleSize  int           `json:"sample_size"`
	Tolerance   float64       `json:"tolerance"`
	Checkpoints []int         `json:"checkpoints"`
	Bins        int           `json:"bins"`
}

// ValidationReport 校验报告聚合根
type ValidationReport struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Generator   GeneratorSpec            `json:"generator"`
	SampleSize  int                      `json:"sample_size"`
	Tolerance   float64                  `json:"tolerance"`
	Observed    stattest.Moments         `json:"observed"`
	Expected    stattest.Moments         `json:"expected"`
	Deviation   stattest.Moments         `json:"deviation"`
	Passed      bool                     `json:"passed"`
	Checkpoints []Checkpoint             `json:"checkpoints"`
	ChiSquare   stattest.ChiSquareResult `json:"chi_square"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ReportFilter 报告查询过滤器
type ReportFilter struct {
	Name     string // 名称过滤
	Passed   *bool  // 结果过滤
	Page     uint32 // 页码
	PageSize uint32 // 每页大小
}

// ReportRepo 报告仓储接口
type ReportRepo interface {
	// Save 保存报告，ID 由调用方分配
	Save(ctx context.Context, report *ValidationReport) error

	// Get 根据ID获取报告，不存在时返回 ErrReportNotFound
	Get(ctx context.Context, id int64) (*ValidationReport, error)

	// List 查询报告列表，按创建时间倒序
	List(ctx context.Context, filter ReportFilter) ([]*ValidationReport, int64, error)
}

// ReportCache 报告缓存接口
// 同一请求结果确定，命中后可直接复用
type ReportCache interface {
	// Get 未命中时返回 nil, nil
	Get(ctx context.Context, req ValidationRequest) (*ValidationReport, error)

	Set(ctx context.Context, req ValidationRequest, report *ValidationReport) error
}

// ReportPublisher 报告事件发布器接口
type ReportPublisher interface {
	// PublishReportCreated 发布报告创建事件
	PublishReportCreated(ctx context.Context, report *ValidationReport) error
}

// ReportIDGenerator 报告 ID 生成器接口
type ReportIDGenerator interface {
	Generate(ctx context.Context, name string) (int64, error)
}

// ValidationUsecase 生成器校验用例
type ValidationUsecase struct {
	repo      ReportRepo
	cache     ReportCache
	publisher ReportPublisher
	idGen     ReportIDGenerator
	conf      *conf.Validation
	log       *log.Helper
}

// NewValidationUsecase 创建校验用例
func NewValidationUsecase(
	c *conf.Validation,
	repo ReportRepo,
	cache ReportCache,
	publisher ReportPublisher,
	idGen ReportIDGenerator,
	logger log.Logger,
) *ValidationUsecase {
	return &ValidationUsecase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		idGen:     idGen,
		conf:      c,
		log:       log.NewHelper(log.With(logger, "module", "biz/validation")),
	}
}

// Validate 抽样并检验生成器，结果持久化、缓存并发布事件
func (uc *ValidationUsecase) Validate(ctx context.Context, req ValidationRequest) (*ValidationReport, error) {
	req, err := uc.normalize(req)
	if err != nil {
		return nil, err
	}

	// 1. 查缓存
	if cached, err := uc.cache.Get(ctx, req); err != nil {
		uc.log.Warnf("report cache get failed: name=%s err=%v", req.Name, err)
	} else if cached != nil {
		uc.log.Infof("report cache hit: name=%s id=%d", req.Name, cached.ID)
		return cached, nil
	}

	// 2. 抽样检验
	report, err := Run(ctx, req)
	if err != nil {
		uc.log.Errorf("validation failed: name=%s generator=%s err=%v", req.Name, req.Generator.Describe(), err)
		return nil, err
	}

	// 3. 分配 ID 并保存
	id, err := uc.idGen.Generate(ctx, req.Name)
	if err != nil {
		uc.log.Errorf("generate report id failed: %v", err)
		return nil, err
	}
	report.ID = id
	report.CreatedAt = time.Now()

	if err := uc.repo.Save(ctx, report); err != nil {
		uc.log.Errorf("save report failed: id=%d err=%v", id, err)
		return nil, err
	}

	// 4. 缓存与事件失败不影响结果
	if err := uc.cache.Set(ctx, req, report); err != nil {
		uc.log.Warnf("report cache set failed: id=%d err=%v", id, err)
	}
	if err := uc.publisher.PublishReportCreated(ctx, report); err != nil {
		uc.log.Errorf("publish report event failed: id=%d err=%v", id, err)
	}

	uc.log.Infof("validation done: id=%d name=%s passed=%t mean=%.6f variance=%.6f skewness=%.6f kurtosis=%.6f",
		id, report.Name, report.Passed,
		report.Observed.Mean, report.Observed.Variance, report.Observed.Skewness, report.Observed.Kurtosis)
	return report, nil
}

// ValidateConfigured 按名称检验配置中的生成器
func (uc *ValidationUsecase) ValidateConfigured(ctx context.Context, name string) (*ValidationReport, error) {
	for _, spec := range uc.Generators() {
		if spec.Name == name {
			return uc.Validate(ctx, ValidationRequest{Name: name, Generator: *spec})
		}
	}
	return nil, withDetail(ErrGeneratorNotConfigured, "generator %q is not configured", name)
}

// SuiteResult 套件中单个生成器的结果
type SuiteResult struct {
	Name   string
	Report *ValidationReport
	Err    error
}

// RunSuite 并发检验全部配置的生成器
// 每个生成器独立构造、独立抽样、用自己的样本矩做比较
func (uc *ValidationUsecase) RunSuite(ctx context.Context) []SuiteResult {
	specs := uc.Generators()
	results := make([]SuiteResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			report, err := uc.Validate(gctx, ValidationRequest{Name: spec.Name, Generator: *spec})
			results[i] = SuiteResult{Name: spec.Name, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Generators 配置中的生成器规格
func (uc *ValidationUsecase) Generators() []*GeneratorSpec {
	confs := uc.conf.GetGenerators()
	specs := make([]*GeneratorSpec, 0, len(confs))
	for _, c := range confs {
		specs = append(specs, SpecFromConf(c))
	}
	return specs
}

// GetReport 获取报告
func (uc *ValidationUsecase) GetReport(ctx context.Context, id int64) (*ValidationReport, error) {
	return uc.repo.Get(ctx, id)
}

// ListReports 查询报告列表
func (uc *ValidationUsecase) ListReports(ctx context.Context, filter ReportFilter) ([]*ValidationReport, int64, error) {
	// 设置默认分页参数
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	return uc.repo.List(ctx, filter)
}

// normalize 填充默认值并校验请求
func (uc *ValidationUsecase) normalize(req ValidationRequest) (ValidationRequest, error) {
	if req.SampleSize == 0 {
		req.SampleSize = uc.conf.GetSampleSize()
	}
	if req.Tolerance == 0 {
		req.Tolerance = uc.conf.GetTolerance()
	}
	if req.Bins == 0 {
		req.Bins = uc.conf.GetBins()
	}
	if req.Checkpoints == nil {
		for _, idx := range uc.conf.GetCheckpoints() {
			if idx <= req.SampleSize {
				req.Checkpoints = append(req.Checkpoints, idx)
			}
		}
	}
	if req.Name == "" {
		req.Name = req.Generator.Name
	}
	if req.Name == "" {
		req.Name = req.Generator.Kind
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// Validate 校验请求参数
func (req *ValidationRequest) Validate() error {
	if err := req.Generator.Validate(); err != nil {
		return err
	}
	if req.SampleSize < 2 || req.SampleSize > MaxSampleSize {
		return withDetail(ErrInvalidSampleSize, "sample size must be in [2, %d], got %d", MaxSampleSize, req.SampleSize)
	}
	if !(req.Tolerance > 0) || math.IsInf(req.Tolerance, 0) {
		return withDetail(ErrInvalidTolerance, "tolerance must be a positive number, got %v", req.Tolerance)
	}
	if req.Bins < 2 {
		return withDetail(ErrInvalidBins, "chi-square needs at least 2 bins, got %d", req.Bins)
	}
	for _, idx := range req.Checkpoints {
		if idx < 1 || idx > req.SampleSize {
			return withDetail(ErrInvalidCheckpoint, "checkpoint %d outside [1, %d]", idx, req.SampleSize)
		}
	}
	return nil
}

// Run 执行一次校验，不涉及存储
// 请求需已通过 Validate
func Run(ctx context.Context, req ValidationRequest) (*ValidationReport, error) {
	gen, err := req.Generator.Build()
	if err != nil {
		return nil, err
	}

	checkpoints := make([]Checkpoint, len(req.Checkpoints))
	for i, idx := range req.Checkpoints {
		checkpoints[i].Index = idx
	}
	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].Index < checkpoints[j].Index
	})

	sampler := random.NewSampler(gen)
	sampler.Reserve(req.SampleSize)
	next := 0
	for n := 1; n <= req.SampleSize; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := sampler.Push()
		for next < len(checkpoints) && checkpoints[next].Index == n {
			checkpoints[next].Value = v
			next++
		}
	}

	sample := sampler.Values()
	observed, err := stattest.Compute(sample)
	if err != nil {
		if stderrors.Is(err, stattest.ErrDegenerateSample) {
			return nil, withDetail(ErrDegenerateSample, "generator %s produced a constant sample", req.Generator.Describe()).WithCause(err)
		}
		return nil, withDetail(ErrInvalidSampleSize, "%v", err).WithCause(err)
	}

	chi, err := stattest.ChiSquareUniform(sample, req.Bins)
	if err != nil {
		if stderrors.Is(err, stattest.ErrInvalidBins) {
			return nil, withDetail(ErrInvalidBins, "%v", err).WithCause(err)
		}
		return nil, withDetail(ErrInvalidSampleSize, "%v", err).WithCause(err)
	}

	return &ValidationReport{
		Name:        req.Name,
		Generator:   req.Generator,
		SampleSize:  req.SampleSize,
		Tolerance:   req.Tolerance,
		Observed:    observed,
		Expected:    stattest.Uniform,
		Deviation:   observed.Deviation(stattest.Uniform),
		Passed:      stattest.Compare(observed, stattest.Uniform, req.Tolerance),
		Checkpoints: checkpoints,
		ChiSquare:   chi,
	}, nil
}
