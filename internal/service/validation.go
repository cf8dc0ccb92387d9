package service

import (
	"context"
	"strconv"

	"prngkit/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// 接口操作名，供中间件匹配
const (
	OperationCreateValidation = "/prngkit.v1.Validation/CreateValidation"
	OperationGetValidation    = "/prngkit.v1.Validation/GetValidation"
	OperationListValidations  = "/prngkit.v1.Validation/ListValidations"
	OperationRunSuite         = "/prngkit.v1.Validation/RunSuite"
	OperationListGenerators   = "/prngkit.v1.Validation/ListGenerators"
)

// ListValidationsReply 报告列表响应
type ListValidationsReply struct {
	Reports  []*biz.ValidationReport `json:"reports"`
	Page     uint32                  `json:"page"`
	PageSize uint32                  `json:"page_size"`
	Total    int64                   `json:"total"`
}

// SuiteEntry 套件中单个生成器的结果
type SuiteEntry struct {
	Name   string                `json:"name"`
	Report *biz.ValidationReport `json:"report,omitempty"`
	Error  *errors.Status        `json:"error,omitempty"`
}

// RunSuiteReply 套件响应
type RunSuiteReply struct {
	Passed  bool          `json:"passed"`
	Results []*SuiteEntry `json:"results"`
}

// ListGeneratorsReply 预置生成器响应
type ListGeneratorsReply struct {
	Generators []*biz.GeneratorSpec `json:"generators"`
}

// ValidationService implements validation APIs.
type ValidationService struct {
	uc  *biz.ValidationUsecase
	log *log.Helper
}

// NewValidationService creates a ValidationService.
func NewValidationService(uc *biz.ValidationUsecase, logger log.Logger) *ValidationService {
	return &ValidationService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/validation")),
	}
}

// CreateValidation 校验一个生成器
func (s *ValidationService) CreateValidation(ctx context.Context, req *biz.ValidationRequest) (*biz.ValidationReport, error) {
	return s.uc.Validate(ctx, *req)
}

// GetValidation 获取报告
func (s *ValidationService) GetValidation(ctx context.Context, id int64) (*biz.ValidationReport, error) {
	return s.uc.GetReport(ctx, id)
}

// ListValidations 查询报告列表
func (s *ValidationService) ListValidations(ctx context.Context, filter biz.ReportFilter) (*ListValidationsReply, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	reports, total, err := s.uc.ListReports(ctx, filter)
	if err != nil {
		s.log.Errorf("list validations failed: err=%v", err)
		return nil, err
	}

	return &ListValidationsReply{
		Reports:  reports,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	}, nil
}

// RunSuite 检验全部预置生成器
func (s *ValidationService) RunSuite(ctx context.Context) (*RunSuiteReply, error) {
	results := s.uc.RunSuite(ctx)

	reply := &RunSuiteReply{
		Passed:  true,
		Results: make([]*SuiteEntry, 0, len(results)),
	}
	for _, r := range results {
		entry := &SuiteEntry{Name: r.Name, Report: r.Report}
		if r.Err != nil {
			entry.Error = &errors.FromError(r.Err).Status
			reply.Passed = false
		} else if !r.Report.Passed {
			reply.Passed = false
		}
		reply.Results = append(reply.Results, entry)
	}
	return reply, nil
}

// ListGenerators 列出预置生成器
func (s *ValidationService) ListGenerators(ctx context.Context) (*ListGeneratorsReply, error) {
	return &ListGeneratorsReply{Generators: s.uc.Generators()}, nil
}

// RegisterValidationHTTPServer 注册 HTTP 路由
func RegisterValidationHTTPServer(srv *http.Server, s *ValidationService) {
	r := srv.Route("/")
	r.POST("/v1/validations", createValidationHandler(s))
	r.GET("/v1/validations/{id}", getValidationHandler(s))
	r.GET("/v1/validations", listValidationsHandler(s))
	r.POST("/v1/suite", runSuiteHandler(s))
	r.GET("/v1/generators", listGeneratorsHandler(s))
}

func createValidationHandler(s *ValidationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in biz.ValidationRequest
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_BODY", err.Error())
		}
		http.SetOperation(ctx, OperationCreateValidation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.CreateValidation(ctx, req.(*biz.ValidationRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*biz.ValidationReport))
	}
}

func getValidationHandler(s *ValidationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
		if err != nil {
			return errors.BadRequest("INVALID_ID", "report id must be an integer")
		}
		http.SetOperation(ctx, OperationGetValidation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.GetValidation(ctx, req.(int64))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*biz.ValidationReport))
	}
}

func listValidationsHandler(s *ValidationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		filter, err := parseReportFilter(ctx)
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationListValidations)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.ListValidations(ctx, req.(biz.ReportFilter))
		})
		out, err := h(ctx, filter)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ListValidationsReply))
	}
}

func runSuiteHandler(s *ValidationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationRunSuite)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.RunSuite(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*RunSuiteReply))
	}
}

func listGeneratorsHandler(s *ValidationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationListGenerators)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.ListGenerators(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ListGeneratorsReply))
	}
}

func parseReportFilter(ctx http.Context) (biz.ReportFilter, error) {
	q := ctx.Query()
	filter := biz.ReportFilter{Name: q.Get("name")}

	if v := q.Get("passed"); v != "" {
		passed, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.BadRequest("INVALID_QUERY", "passed must be true or false")
		}
		filter.Passed = &passed
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, errors.BadRequest("INVALID_QUERY", "page must be a positive integer")
		}
		filter.Page = uint32(page)
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.ParseUint(v, 10, 32)
		if err != nil || size > 100 {
			return filter, errors.BadRequest("INVALID_QUERY", "page_size must be in [0, 100]")
		}
		filter.PageSize = uint32(size)
	}
	return filter, nil
}
