package random

// defaultXorShiftSeed 避免零状态
const defaultXorShiftSeed = 0x9e3779b97f4a7c15

// XorShift64Star 是一个快速的伪随机数生成器
// 作为乘同余生成器之外的对照实现，可嵌套进 Shuffle
type XorShift64Star struct {
	s uint64
}

// NewXorShift64Star 创建一个新的随机数生成器
// seed: 种子值，如果为 0 则使用默认种子
func NewXorShift64Star(seed uint64) *XorShift64Star {
	if seed == 0 {
		seed = defaultXorShiftSeed
	}
	return &XorShift64Star{s: seed}
}

// Uint64 生成下一个 64 位随机数
func (r *XorShift64Star) Uint64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// Float64 取高 53 位，返回 [0,1) 内的值
func (r *XorShift64Star) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}
