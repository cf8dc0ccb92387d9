// Package random 提供可组合的伪随机数生成器
// 注意：不适用于加密场景，生成器实例非并发安全，同一实例只应由一个 goroutine 使用
package random

// Generator 均匀分布生成器接口
// Float64 每次调用推进一次内部状态，返回 [0,1) 内的值
type Generator interface {
	Float64() float64
}
