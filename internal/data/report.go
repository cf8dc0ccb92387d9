package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"prngkit/internal/biz"
	"prngkit/pkg/stattest"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type reportRepo struct {
	data *Data
	log  *log.Helper
}

// NewReportRepo 创建报告仓储
func NewReportRepo(data *Data, logger log.Logger) biz.ReportRepo {
	return &reportRepo{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/report")),
	}
}

// reportPO 校验报告持久化对象
// 理论矩是常量，不落库；偏差在读取时重新计算
type reportPO struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false;column:report_id"`
	Name        string    `gorm:"column:name;size:128;not null;index"`
	Fingerprint string    `gorm:"column:fingerprint;size:16;not null;index"`
	Generator   []byte    `gorm:"column:generator;type:jsonb;not null"` // 生成器规格
	SampleSize  int       `gorm:"column:sample_size;not null"`
	Tolerance   float64   `gorm:"column:tolerance;not null"`
	Mean        float64   `gorm:"column:mean"`
	Variance    float64   `gorm:"column:variance"`
	Skewness    float64   `gorm:"column:skewness"`
	Kurtosis    float64   `gorm:"column:kurtosis"`
	Passed      bool      `gorm:"column:passed;index"`
	Checkpoints []byte    `gorm:"column:checkpoints;type:jsonb"`
	ChiBins     int       `gorm:"column:chi_bins"`
	ChiStat     float64   `gorm:"column:chi_statistic"`
	ChiPValue   float64   `gorm:"column:chi_p_value"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (reportPO) TableName() string {
	return "validation_reports"
}

// Save 保存报告
func (r *reportRepo) Save(ctx context.Context, report *biz.ValidationReport) error {
	po, err := toReportPO(report)
	if err != nil {
		return err
	}

	if err := r.data.db.WithContext(ctx).Create(po).Error; err != nil {
		r.log.Errorf("create report failed: id=%d err=%v", report.ID, err)
		return err
	}
	return nil
}

// Get 根据ID获取报告
func (r *reportRepo) Get(ctx context.Context, id int64) (*biz.ValidationReport, error) {
	var po reportPO
	if err := r.data.db.WithContext(ctx).First(&po, "report_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrReportNotFound
		}
		r.log.Errorf("get report failed: id=%d err=%v", id, err)
		return nil, err
	}
	return fromReportPO(&po)
}

// List 查询报告列表
func (r *reportRepo) List(ctx context.Context, filter biz.ReportFilter) ([]*biz.ValidationReport, int64, error) {
	query := r.data.db.WithContext(ctx).Model(&reportPO{})

	// 名称过滤
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}

	// 结果过滤
	if filter.Passed != nil {
		query = query.Where("passed = ?", *filter.Passed)
	}

	// 统计总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.log.Errorf("count reports failed: err=%v", err)
		return nil, 0, err
	}

	// 分页查询
	var pos []reportPO
	offset := int((filter.Page - 1) * filter.PageSize)
	err := query.
		Order("created_at DESC").
		Limit(int(filter.PageSize)).
		Offset(offset).
		Find(&pos).Error
	if err != nil {
		r.log.Errorf("list reports failed: err=%v", err)
		return nil, 0, err
	}

	reports := make([]*biz.ValidationReport, 0, len(pos))
	for i := range pos {
		report, err := fromReportPO(&pos[i])
		if err != nil {
			r.log.Warnf("decode report failed: id=%d err=%v", pos[i].ID, err)
			continue
		}
		reports = append(reports, report)
	}

	return reports, total, nil
}

func toReportPO(report *biz.ValidationReport) (*reportPO, error) {
	generator, err := json.Marshal(report.Generator)
	if err != nil {
		return nil, err
	}
	checkpoints, err := json.Marshal(report.Checkpoints)
	if err != nil {
		return nil, err
	}

	return &reportPO{
		ID:          report.ID,
		Name:        report.Name,
		Fingerprint: reportFingerprint(report),
		Generator:   generator,
		SampleSize:  report.SampleSize,
		Tolerance:   report.Tolerance,
		Mean:        report.Observed.Mean,
		Variance:    report.Observed.Variance,
		Skewness:    report.Observed.Skewness,
		Kurtosis:    report.Observed.Kurtosis,
		Passed:      report.Passed,
		Checkpoints: checkpoints,
		ChiBins:     report.ChiSquare.Bins,
		ChiStat:     report.ChiSquare.Statistic,
		ChiPValue:   report.ChiSquare.PValue,
		CreatedAt:   report.CreatedAt,
	}, nil
}

func fromReportPO(po *reportPO) (*biz.ValidationReport, error) {
	report := &biz.ValidationReport{
		ID:         po.ID,
		Name:       po.Name,
		SampleSize: po.SampleSize,
		Tolerance:  po.Tolerance,
		Observed: stattest.Moments{
			Mean:     po.Mean,
			Variance: po.Variance,
			Skewness: po.Skewness,
			Kurtosis: po.Kurtosis,
		},
		Expected: stattest.Uniform,
		Passed:   po.Passed,
		ChiSquare: stattest.ChiSquareResult{
			Bins:      po.ChiBins,
			Statistic: po.ChiStat,
			PValue:    po.ChiPValue,
		},
		CreatedAt: po.CreatedAt,
	}
	report.Deviation = report.Observed.Deviation(report.Expected)

	if err := json.Unmarshal(po.Generator, &report.Generator); err != nil {
		return nil, err
	}
	if len(po.Checkpoints) > 0 {
		if err := json.Unmarshal(po.Checkpoints, &report.Checkpoints); err != nil {
			return nil, err
		}
	}
	return report, nil
}
