package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_GarbageRejected(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello world")},
		{"truncated header", []byte("%PDF-1.7")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data)
			assert.Error(t, err)
		})
	}
}
