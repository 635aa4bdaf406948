package utils

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Postgres error codes exposed to clients as safe messages.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInsufficientPriv    = "42501"
	pgStringTooLong       = "22001"
	pgInvalidText         = "22P02"
	notFoundCode          = "PGRST116"
)

type safeMessage struct{ es, en string }

var safeMessages = map[string]safeMessage{
	pgUniqueViolation:     {"Este registro ya existe", "This record already exists"},
	pgForeignKeyViolation: {"Referencia inválida", "Invalid reference"},
	pgNotNullViolation:    {"Campo requerido faltante", "Required field missing"},
	notFoundCode:          {"No se encontró el recurso", "Resource not found"},
	pgInsufficientPriv:    {"No tienes permisos para realizar esta acción", "Permission denied"},
	pgCheckViolation:      {"Datos inválidos", "Invalid data"},
	pgStringTooLong:       {"El texto es demasiado largo", "Text too long"},
	pgInvalidText:         {"Formato de datos inválido", "Invalid data format"},
}

var defaultSafeMessage = safeMessage{
	"Ocurrió un error. Por favor intenta nuevamente.",
	"An error occurred. Please try again.",
}

// PostgresCode extracts the SQLSTATE from pgx or lib/pq errors. Record not
// found errors report PGRST116.
func PostgresCode(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundCode
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pgUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// SafeErrorMessage maps err to a message that leaks no internals. Unknown
// languages fall back to Spanish.
func SafeErrorMessage(err error, lang string) string {
	msg, ok := safeMessages[PostgresCode(err)]
	if !ok {
		msg = defaultSafeMessage
	}
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		return msg.en
	}
	return msg.es
}

func IsNotFound(err error) bool {
	return PostgresCode(err) == notFoundCode
}

func IsConflict(err error) bool {
	return PostgresCode(err) == pgUniqueViolation
}

// IsClientDataError is true for constraint and format violations caused by input.
func IsClientDataError(err error) bool {
	switch PostgresCode(err) {
	case pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation, pgStringTooLong, pgInvalidText:
		return true
	}
	return false
}

// ErrorCode is the API error code for a database error.
func ErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return "NOT_FOUND"
	case IsConflict(err):
		return "CONFLICT"
	case IsClientDataError(err):
		return "INVALID_DATA"
	case PostgresCode(err) == pgInsufficientPriv:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}
