package biz

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误原因
const (
	ReasonInvalidGenerator       = "INVALID_GENERATOR"
	ReasonInvalidTableSize       = "INVALID_TABLE_SIZE"
	ReasonInvalidSampleSize      = "INVALID_SAMPLE_SIZE"
	ReasonInvalidCheckpoint      = "INVALID_CHECKPOINT"
	ReasonInvalidBins            = "INVALID_BINS"
	ReasonInvalidTolerance       = "INVALID_TOLERANCE"
	ReasonDegenerateSample       = "DEGENERATE_SAMPLE"
	ReasonReportNotFound         = "REPORT_NOT_FOUND"
	ReasonGeneratorNotConfigured = "GENERATOR_NOT_CONFIGURED"
)

// 错误定义，errors.Is 按 code + reason 匹配
var (
	ErrInvalidGenerator       = errors.BadRequest(ReasonInvalidGenerator, "invalid generator spec")
	ErrInvalidTableSize       = errors.BadRequest(ReasonInvalidTableSize, "table size must be at least 1")
	ErrInvalidSampleSize      = errors.BadRequest(ReasonInvalidSampleSize, "invalid sample size")
	ErrInvalidCheckpoint      = errors.BadRequest(ReasonInvalidCheckpoint, "invalid checkpoint")
	ErrInvalidBins            = errors.BadRequest(ReasonInvalidBins, "chi-square needs at least 2 bins")
	ErrInvalidTolerance       = errors.BadRequest(ReasonInvalidTolerance, "tolerance must be a positive number")
	ErrDegenerateSample       = errors.New(422, ReasonDegenerateSample, "sample variance is zero")
	ErrReportNotFound         = errors.NotFound(ReasonReportNotFound, "validation report not found")
	ErrGeneratorNotConfigured = errors.NotFound(ReasonGeneratorNotConfigured, "generator is not configured")
)

// withDetail 复制错误码与原因，替换为具体的错误信息
func withDetail(base *errors.Error, format string, args ...any) *errors.Error {
	return errors.New(int(base.Code), base.Reason, fmt.Sprintf(format, args...))
}
