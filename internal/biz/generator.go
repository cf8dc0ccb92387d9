package biz

import (
	"fmt"
	"math"
	"strings"

	"prngkit/internal/conf"
	"prngkit/pkg/random"
)

// 生成器类型
const (
	KindMCG      = "mcg"
	KindShuffle  = "shuffle"
	KindXorShift = "xorshift"
)

// MaxGeneratorDepth 组合器最大嵌套层数
const MaxGeneratorDepth = 8

// GeneratorSpec 生成器规格（值对象）
// shuffle 通过 Primary/Secondary 嵌套任意生成器，包括另一个 shuffle
type GeneratorSpec struct {
	Name      string         `json:"name,omitempty"`
	Kind      string         `json:"kind"`
	Seed      uint64         `json:"seed,omitempty"`       // mcg 要求不超过 32 位
	Constant  uint32         `json:"constant,omitempty"`   // 仅 mcg
	TableSize int            `json:"table_size,omitempty"` // 仅 shuffle
	Primary   *GeneratorSpec `json:"primary,omitempty"`    // 仅 shuffle，填表
	Secondary *GeneratorSpec `json:"secondary,omitempty"`  // 仅 shuffle，选下标
}

// Validate 校验规格，通过后 Build 不会 panic
func (s *GeneratorSpec) Validate() error {
	return s.validate(1)
}

func (s *GeneratorSpec) validate(depth int) error {
	if s == nil {
		return withDetail(ErrInvalidGenerator, "generator spec is missing")
	}
	if depth > MaxGeneratorDepth {
		return withDetail(ErrInvalidGenerator, "generator nesting exceeds %d levels", MaxGeneratorDepth)
	}

	switch s.Kind {
	case KindMCG:
		if s.Seed > math.MaxUint32 {
			return withDetail(ErrInvalidGenerator, "mcg seed %d does not fit in 32 bits", s.Seed)
		}
		return nil
	case KindXorShift:
		return nil
	case KindShuffle:
		if s.TableSize < 1 {
			return withDetail(ErrInvalidTableSize, "table size must be at least 1, got %d", s.TableSize)
		}
		if s.Primary == nil || s.Secondary == nil {
			return withDetail(ErrInvalidGenerator, "shuffle needs primary and secondary generators")
		}
		if err := s.Primary.validate(depth + 1); err != nil {
			return err
		}
		return s.Secondary.validate(depth + 1)
	default:
		return withDetail(ErrInvalidGenerator, "unknown generator kind %q", s.Kind)
	}
}

// Build 校验并构造生成器，每次调用返回全新的实例
func (s *GeneratorSpec) Build() (random.Generator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s.build(), nil
}

func (s *GeneratorSpec) build() random.Generator {
	switch s.Kind {
	case KindMCG:
		return random.NewMCG(uint32(s.Seed), s.Constant)
	case KindXorShift:
		return random.NewXorShift64Star(s.Seed)
	default:
		return random.NewShuffle(s.Primary.build(), s.Secondary.build(), s.TableSize)
	}
}

// Describe 规范化描述，不含名称，相同描述的规格产生相同序列
func (s *GeneratorSpec) Describe() string {
	var b strings.Builder
	s.describe(&b)
	return b.String()
}

func (s *GeneratorSpec) describe(b *strings.Builder) {
	if s == nil {
		b.WriteString("nil")
		return
	}
	switch s.Kind {
	case KindMCG:
		fmt.Fprintf(b, "mcg(seed=%d,c=%d)", s.Seed, s.Constant)
	case KindXorShift:
		fmt.Fprintf(b, "xorshift(seed=%d)", s.Seed)
	case KindShuffle:
		fmt.Fprintf(b, "shuffle(k=%d,", s.TableSize)
		s.Primary.describe(b)
		b.WriteByte(',')
		s.Secondary.describe(b)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%s()", s.Kind)
	}
}

// SpecFromConf 配置转换为生成器规格
func SpecFromConf(c *conf.Generator) *GeneratorSpec {
	if c == nil {
		return nil
	}
	return &GeneratorSpec{
		Name:      c.Name,
		Kind:      c.Kind,
		Seed:      c.Seed,
		Constant:  c.Constant,
		TableSize: c.TableSize,
		Primary:   SpecFromConf(c.Primary),
		Secondary: SpecFromConf(c.Secondary),
	}
}
