package errors

import "errors"

// ErrStatusConflict 条件更新未命中：报销单已处于终态，状态未改变
var ErrStatusConflict = errors.New("报销单状态已变更，更新未生效")
