package random

// Shuffle MacLaren-Marsaglia 表混洗组合器
// primary 填充并补充表，secondary 只负责选下标，用来打散 primary 输出的序列相关性
type Shuffle struct {
	primary   Generator
	secondary Generator
	table     []float64
}

// NewShuffle 创建混洗组合器，接管两个生成器的所有权
// 按抽取顺序从 primary 取 k 个值填满表（下标 0 最先）
// k < 1 或生成器为 nil 属于调用方错误，直接 panic
func NewShuffle(primary, secondary Generator, k int) *Shuffle {
	if k < 1 {
		panic("random: shuffle table size must be at least 1")
	}
	if primary == nil || secondary == nil {
		panic("random: shuffle requires two generators")
	}

	table := make([]float64, k)
	for i := range table {
		table[i] = primary.Float64()
	}

	return &Shuffle{
		primary:   primary,
		secondary: secondary,
		table:     table,
	}
}

// TableSize 返回表长度，构造后不变
func (s *Shuffle) TableSize() int {
	return len(s.table)
}

// Float64 先读出表项，再用 primary 的新值替换该位置
func (s *Shuffle) Float64() float64 {
	index := s.index(s.secondary.Float64())
	result := s.table[index]
	s.table[index] = s.primary.Float64()
	return result
}

// index 计算 floor(u*k)，整数转换向零截断
func (s *Shuffle) index(u float64) int {
	k := len(s.table)
	i := int(u * float64(k))
	// u 在 [0,1) 内时不会出现，舍入误差兜底
	if i >= k {
		i = k - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
