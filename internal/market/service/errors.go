package service

import "errors"

// 服务层错误哨兵，handler据此映射HTTP状态码
var (
	// ErrValidation 请求字段缺失或非法 → 400
	ErrValidation = errors.New("validation failed")
	// ErrConflict 状态不允许当前操作 → 409
	ErrConflict = errors.New("operation conflicts with current state")
)
