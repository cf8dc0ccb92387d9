package random

// mcgModulus 模数 2^31
const mcgModulus uint64 = 1 << 31

// MCG 乘同余生成器：state = state * b mod 2^31
type MCG struct {
	state uint32
	b     uint32
}

// NewMCG 创建乘同余生成器
// seed: 初始状态，应满足 0 <= seed < 2^31（超出范围不会报错，按相同算术处理）
// c: 乘数参数，实际乘数为 max(c, 2^31-c)
func NewMCG(seed, c uint32) *MCG {
	return &MCG{
		state: seed,
		b:     max(c, uint32(mcgModulus)-c),
	}
}

// Multiplier 返回实际使用的乘数
func (g *MCG) Multiplier() uint32 {
	return g.b
}

// next 推进一步并返回新状态，乘积在 64 位内计算，不会溢出
func (g *MCG) next() uint32 {
	g.state = uint32(uint64(g.state) * uint64(g.b) % mcgModulus)
	return g.state
}

// Float64 返回 state / 2^31
func (g *MCG) Float64() float64 {
	return float64(g.next()) / float64(mcgModulus)
}
