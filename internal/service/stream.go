package service

import (
	"context"

	"prngkit/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ValidationStreamService 处理 Redis Stream 中的校验请求
type ValidationStreamService struct {
	uc  *biz.ValidationUsecase
	log *log.Helper
}

// NewValidationStreamService 创建 Stream 校验服务
func NewValidationStreamService(uc *biz.ValidationUsecase, logger log.Logger) *ValidationStreamService {
	return &ValidationStreamService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/stream")),
	}
}

// HandleValidationRequest 校验名为 generator 的预置生成器
// 请求本身有问题（4xx）时重试无意义，返回 nil 以便 ACK
func (s *ValidationStreamService) HandleValidationRequest(ctx context.Context, streamID string, generator string) error {
	s.log.Infof("handling validation request: streamID=%s generator=%s", streamID, generator)

	report, err := s.uc.ValidateConfigured(ctx, generator)
	if err != nil {
		if code := errors.Code(err); code >= 400 && code < 500 {
			s.log.Warnf("drop validation request: streamID=%s generator=%s err=%v", streamID, generator, err)
			return nil
		}
		s.log.Errorf("validation failed: streamID=%s generator=%s err=%v", streamID, generator, err)
		return err
	}

	s.log.Infof("validation request done: streamID=%s reportID=%d passed=%t", streamID, report.ID, report.Passed)
	return nil
}
