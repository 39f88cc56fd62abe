package gradestore

import "errors"

var (
	// ErrValidation is returned when a required field is blank
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateKey is returned by Add when student id already exists
	ErrDuplicateKey = errors.New("student id already exists")
	// ErrNotFound is returned when student id doesn't exist
	ErrNotFound = errors.New("student id not found")
	// ErrStorageRead is returned when backing file is missing, unreadable or malformed
	ErrStorageRead = errors.New("failed to read grades file")
	// ErrStorageWrite is returned when backing file can't be written
	ErrStorageWrite = errors.New("failed to write grades file")
)
