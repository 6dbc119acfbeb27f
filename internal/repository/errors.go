// Package repository 定义各存储实现共用的哨兵错误
package repository

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPostNotFound        = errors.New("post not found")
)
