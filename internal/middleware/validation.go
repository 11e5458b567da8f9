package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/uniwhats/desk/internal/model"
)

// ValidateMessageBody validates an outbound or inbound message body.
func ValidateMessageBody(body string) error {
	if len(body) == 0 {
		return errors.New("message body cannot be empty")
	}
	if len(body) > 100000 {
		return errors.New("message body exceeds maximum length")
	}
	if !utf8.ValidString(body) {
		return errors.New("message body must be valid UTF-8")
	}
	return nil
}

// ValidateMessageType checks the content type enum.
func ValidateMessageType(t model.MessageType) error {
	switch t {
	case model.MessageTypeText, model.MessageTypeImage, model.MessageTypeDocument, model.MessageTypeAudio:
		return nil
	}
	return errors.New("invalid message type")
}

// ValidateTags checks a replacement tag set.
func ValidateTags(tags []string) error {
	if len(tags) > 20 {
		return errors.New("too many tags")
	}
	for _, tag := range tags {
		if tag == "" {
			return errors.New("tags cannot be empty")
		}
		if len(tag) > 64 {
			return errors.New("tag exceeds maximum length")
		}
		if !utf8.ValidString(tag) {
			return errors.New("tags must be valid UTF-8")
		}
	}
	return nil
}

// ValidateID checks a path identifier.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("identifier cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("identifier exceeds maximum length")
	}
	return nil
}
