package entity

import "errors"

// Domain errors for words, comments and audio uploads.
var (
	ErrWordNotFound    = errors.New("word not found")
	ErrInvalidPayload  = errors.New("invalid request payload")
	ErrNoAudioFile     = errors.New("no audio file")
	ErrAudioTooLarge   = errors.New("audio file too large")
	ErrAudioUpload     = errors.New("audio upload failed")
	ErrDocumentMissing = errors.New("document missing")
	ErrInvalidFilter   = errors.New("invalid filter")
)
