// Package stattest 检验样本是否近似服从 [0,1) 上的连续均匀分布
//
// 矩按总体公式计算（除以 n）。方差为零的样本没有定义偏度与峰度，
// Compute 对其返回 ErrDegenerateSample，不返回非有限值
package stattest

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrSampleTooSmall 样本少于 2 个值
	ErrSampleTooSmall = errors.New("stattest: sample needs at least 2 values")

	// ErrDegenerateSample 样本所有值相同，方差为零
	ErrDegenerateSample = errors.New("stattest: sample variance is zero")
)

// Moments 样本的均值、方差、偏度与超额峰度
type Moments struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // 超额峰度
}

// Uniform U[0,1) 的理论值：均值 1/2，方差 1/12，偏度 0，超额峰度 -6/5
var Uniform = Moments{
	Mean:     0.5,
	Variance: 1.0 / 12,
	Skewness: 0,
	Kurtosis: -1.2,
}

// Compute 计算样本的总体矩
func Compute(sample []float64) (Moments, error) {
	if len(sample) < 2 {
		return Moments{}, ErrSampleTooSmall
	}

	// 常数样本的方差可能因舍入得到极小的非零值
	if floats.Min(sample) == floats.Max(sample) {
		return Moments{}, ErrDegenerateSample
	}

	mean := stat.Mean(sample, nil)
	variance := stat.Moment(2, sample, nil)
	if variance == 0 {
		return Moments{}, ErrDegenerateSample
	}

	return Moments{
		Mean:     mean,
		Variance: variance,
		Skewness: stat.Moment(3, sample, nil) / math.Pow(variance, 1.5),
		Kurtosis: stat.Moment(4, sample, nil)/(variance*variance) - 3,
	}, nil
}

// Deviation 逐项返回与 ref 的绝对差
func (m Moments) Deviation(ref Moments) Moments {
	return Moments{
		Mean:     math.Abs(m.Mean - ref.Mean),
		Variance: math.Abs(m.Variance - ref.Variance),
		Skewness: math.Abs(m.Skewness - ref.Skewness),
		Kurtosis: math.Abs(m.Kurtosis - ref.Kurtosis),
	}
}

// Compare 各项偏差均不超过 tolerance 时返回 true（含边界）
// 任一项为 NaN 时返回 false
func Compare(observed, theoretical Moments, tolerance float64) bool {
	d := observed.Deviation(theoretical)
	return d.Mean <= tolerance &&
		d.Variance <= tolerance &&
		d.Skewness <= tolerance &&
		d.Kurtosis <= tolerance
}
