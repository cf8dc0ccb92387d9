package stattest

import (
	"errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidBins 分箱数少于 2
var ErrInvalidBins = errors.New("stattest: need at least 2 bins")

// ChiSquareResult [0,1) 等宽分箱的卡方拟合优度检验结果
type ChiSquareResult struct {
	Bins      int     `json:"bins"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// ChiSquareUniform 将样本放入 bins 个等宽箱，与均匀分布的期望频数比较
// 超出 [0,1) 的值计入两端的箱
func ChiSquareUniform(sample []float64, bins int) (ChiSquareResult, error) {
	if bins < 2 {
		return ChiSquareResult{}, ErrInvalidBins
	}
	if len(sample) == 0 {
		return ChiSquareResult{}, ErrSampleTooSmall
	}

	observed := make([]float64, bins)
	for _, v := range sample {
		i := int(v * float64(bins))
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		observed[i]++
	}

	expected := make([]float64, bins)
	each := float64(len(sample)) / float64(bins)
	for i := range expected {
		expected[i] = each
	}

	statistic := stat.ChiSquare(observed, expected)
	dist := distuv.ChiSquared{K: float64(bins - 1)}

	return ChiSquareResult{
		Bins:      bins,
		Statistic: statistic,
		PValue:    dist.Survival(statistic),
	}, nil
}
