// Package selector 实现按相对权重的随机抽取（逆 CDF 抽样）。
package selector

import (
	"errors"
	"math"
	"math/rand"
)

var (
	// ErrNoCandidates 表示没有可抽取的候选项（空序列或总权重为 0）。
	ErrNoCandidates = errors.New("selector: no candidates")
	// ErrInvalidWeight 表示存在负数、NaN 或无穷大的权重。
	ErrInvalidWeight = errors.New("selector: invalid weight")
)

// Candidate 是一个参与抽取的奖品 ID 及其相对权重。
type Candidate struct {
	ID     uint
	Weight float64
}

// Source 提供 [0, 1) 区间内均匀分布的随机数。
type Source interface {
	Float64() float64
}

// SourceFunc 将普通函数适配为 Source。
type SourceFunc func() float64

func (f SourceFunc) Float64() float64 { return f() }

// DefaultSource 返回并发安全的全局随机源。
func DefaultSource() Source { return SourceFunc(rand.Float64) }

// Pick 按权重从 candidates 中选出一个 ID。
//
// 从 [0, W) 抽取 r，依次减去每个权重，r 首次小于当前权重时返回该项。
// 浮点累积误差导致遍历结束仍未命中时，固定返回最后一项。
func Pick(candidates []Candidate, src Source) (uint, error) {
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	var total float64
	for _, c := range candidates {
		if c.Weight < 0 || math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) {
			return 0, ErrInvalidWeight
		}
		total += c.Weight
	}
	if total <= 0 || math.IsInf(total, 0) {
		return 0, ErrNoCandidates
	}

	r := src.Float64() * total
	for _, c := range candidates {
		if r < c.Weight {
			return c.ID, nil
		}
		r -= c.Weight
	}
	return candidates[len(candidates)-1].ID, nil
}
