package domain

import "errors"

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrTemplateNotFound  = errors.New("sms template not found")
)
