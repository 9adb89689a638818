package service

import "errors"

var (
	ErrEmptyContract    = errors.New("contract text is empty")
	ErrNoLawsRetrieved  = errors.New("no relevant laws retrieved")
	ErrEmbeddingFailed  = errors.New("failed to embed retrieval query")
	ErrEmptyPolicy      = errors.New("policy text is empty")
	ErrConversionFailed = errors.New("could not produce a valid OCL constraint")
	ErrInvalidPolicy    = errors.New("invalid policy")
	ErrPolicyNotFound   = errors.New("policy not found")
)
