package models

import "errors"

// Базовые категории ошибок. Ошибки пакетов оборачивают их через %w,
// поэтому вызывающий код проверяет категорию с помощью errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrPersistence  = errors.New("persistence error")
	ErrNotFound     = errors.New("not found")
)
