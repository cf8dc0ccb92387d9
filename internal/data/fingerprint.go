package data

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"prngkit/internal/biz"

	"github.com/cespare/xxhash/v2"
)

// fingerprint 校验参数的 64 位哈希，参数相同则结果相同
func fingerprint(name string, spec biz.GeneratorSpec, sampleSize int, tolerance float64, checkpoints []int, bins int) string {
	idx := make([]int, len(checkpoints))
	copy(idx, checkpoints)
	sort.Ints(idx)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(spec.Describe())
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(sampleSize))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(tolerance, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(bins))
	for _, i := range idx {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(i))
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

func requestFingerprint(req biz.ValidationRequest) string {
	return fingerprint(req.Name, req.Generator, req.SampleSize, req.Tolerance, req.Checkpoints, req.Bins)
}

func reportFingerprint(report *biz.ValidationReport) string {
	idx := make([]int, 0, len(report.Checkpoints))
	for _, cp := range report.Checkpoints {
		idx = append(idx, cp.Index)
	}
	return fingerprint(report.Name, report.Generator, report.SampleSize, report.Tolerance, idx, report.ChiSquare.Bins)
}
