package apperr

import (
	"fmt"
	"strings"
)

// ==================== 错误码定义 ====================

// Code 校验错误码
type Code string

const (
	CodeRequired                 Code = "required"
	CodeNotFound                 Code = "not_found"
	CodeInvalid                  Code = "invalid"
	CodeUnique                   Code = "unique"
	CodeAlreadyExists            Code = "already_exists"
	CodeDuplicatedInputItem      Code = "duplicated_input_item"
	CodeDuplicatedCountryInGroup Code = "duplicated_country_in_group"
	CodeMaxLessThanMin           Code = "max_less_than_min"
	CodeDefaultShippingProfile   Code = "default_shipping_profile"
)

// ==================== 校验错误 ====================

// ValidationError 结构化校验错误
// Field 为出错的输入字段路径，Index 为批量输入中的下标（-1 表示无下标）
type ValidationError struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Index   int      `json:"index"`
	Params  []string `json:"params,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// New 创建无字段的校验错误
func New(code Code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message, Index: -1}
}

// NewField 创建带字段路径的校验错误
func NewField(code Code, field, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message, Field: field, Index: -1}
}

// WithIndex 标注批量输入中的下标
func (e *ValidationError) WithIndex(index int) *ValidationError {
	e.Index = index
	return e
}

// WithParams 附加冲突对象标识（如重复的仓库 ID）
func (e *ValidationError) WithParams(params ...string) *ValidationError {
	e.Params = append(e.Params, params...)
	return e
}

// ==================== 批量错误聚合 ====================

// List 批量操作的错误集合
// 批量形态的操作（如多变体创建）逐项收集错误后整体失败，而不是碰到第一个就中断
type List struct {
	Errors []*ValidationError
}

func (l *List) Error() string {
	msgs := make([]string, 0, len(l.Errors))
	for _, e := range l.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Append 收集一个错误
func (l *List) Append(errs ...*ValidationError) {
	l.Errors = append(l.Errors, errs...)
}

// HasErrors 是否收集到错误
func (l *List) HasErrors() bool {
	return len(l.Errors) > 0
}

// AsError 有错误时返回自身，否则返回 nil
func (l *List) AsError() error {
	if l.HasErrors() {
		return l
	}
	return nil
}

// AsValidation 从 error 中提取校验错误
func AsValidation(err error) (*ValidationError, bool) {
	v, ok := err.(*ValidationError)
	return v, ok
}

// AsList 从 error 中提取批量错误集合
func AsList(err error) (*List, bool) {
	l, ok := err.(*List)
	return l, ok
}
