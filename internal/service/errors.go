package service

import "errors"

var (
	ErrWheelNotFound        = errors.New("wheel not found")
	ErrWheelDisabled        = errors.New("wheel is disabled")
	ErrNoStock              = errors.New("no prizes in stock")
	ErrSpinContention       = errors.New("spin lost too many stock races, please retry")
	ErrWinRecordNotFound    = errors.New("win record not found")
	ErrAlreadyClaimed       = errors.New("prize already claimed")
	ErrInvalidClaim         = errors.New("invalid claim details")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInternalServer       = errors.New("internal server error")
)

// 抽奖结果在线路协议中的状态值
const (
	OutcomeWon           = "won"
	OutcomeNoStock       = "no_stock"
	OutcomeWheelDisabled = "wheel_disabled"
	OutcomeWheelNotFound = "wheel_not_found"
	OutcomeRetry         = "retry"
	OutcomeError         = "error"
)

// Outcome 将 Spin 返回的错误映射为协议状态，nil 表示中奖。
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeWon
	case errors.Is(err, ErrNoStock):
		return OutcomeNoStock
	case errors.Is(err, ErrWheelDisabled):
		return OutcomeWheelDisabled
	case errors.Is(err, ErrWheelNotFound):
		return OutcomeWheelNotFound
	case errors.Is(err, ErrSpinContention):
		return OutcomeRetry
	default:
		return OutcomeError
	}
}

// Retryable 报告客户端是否可以原样重试。只有竞争失败属于瞬时错误。
func Retryable(err error) bool {
	return errors.Is(err, ErrSpinContention)
}
