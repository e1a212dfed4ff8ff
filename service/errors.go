package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound 所有“不存在”错误的根
	ErrNotFound = errors.New("not found")

	ErrStatusNotFound   = fmt.Errorf("relationship status %w", ErrNotFound)
	ErrIdentityNotFound = fmt.Errorf("identity %w", ErrNotFound)

	// ErrAmbiguousSlug 目录数据损坏：一个 slug 匹配到多个状态
	ErrAmbiguousSlug = errors.New("slug matches more than one relationship status")

	ErrSelfRelationship = errors.New("cannot create a relationship to yourself")
)

// StorageError 持久化失败（不自动重试）
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// 非字段错误
const msgSlugsMustDiffer = "from, to, and symmetrical slugs must be different"

// ValidationError 状态定义校验失败
type ValidationError struct {
	FieldErrors    map[string]string // 字段 -> 错误
	NonFieldErrors []string          // 整体错误
}

func (e *ValidationError) addField(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	if _, exists := e.FieldErrors[field]; !exists {
		e.FieldErrors[field] = msg
	}
}

func (e *ValidationError) empty() bool {
	return len(e.FieldErrors) == 0 && len(e.NonFieldErrors) == 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.FieldErrors)+len(e.NonFieldErrors))
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, field+": "+e.FieldErrors[field])
	}
	parts = append(parts, e.NonFieldErrors...)
	return "invalid relationship status: " + strings.Join(parts, "; ")
}
