package random

// Sampler 样本收集器
// 独占一个生成器，按抽取顺序追加，只增不删
type Sampler struct {
	gen    Generator
	values []float64
}

// NewSampler 创建样本收集器
func NewSampler(gen Generator) *Sampler {
	return &Sampler{gen: gen}
}

// Reserve 预留容量，不影响结果
func (s *Sampler) Reserve(n int) {
	if n <= cap(s.values)-len(s.values) {
		return
	}
	grown := make([]float64, len(s.values), len(s.values)+n)
	copy(grown, s.values)
	s.values = grown
}

// Push 抽取一次并追加，返回抽到的值
func (s *Sampler) Push() float64 {
	v := s.gen.Float64()
	s.values = append(s.values, v)
	return v
}

// Fill 连续抽取 n 次
func (s *Sampler) Fill(n int) {
	s.Reserve(n)
	for i := 0; i < n; i++ {
		s.Push()
	}
}

// Len 已收集的样本数
func (s *Sampler) Len() int {
	return len(s.values)
}

// Values 返回样本副本，第 i 个元素是第 i+1 次抽取的值
func (s *Sampler) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}
