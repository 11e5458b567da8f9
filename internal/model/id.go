package model

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a prefixed short identifier such as "conv_9f2c41aa".
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + hex.EncodeToString(u[:4])
}
