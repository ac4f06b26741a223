package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "storage with cause",
			err:  Storage("insert record", io.ErrUnexpectedEOF),
			want: "insert record: storage failure: unexpected EOF",
		},
		{
			name: "capability without cause",
			err:  TerminalCapability("query tmux", "unexpected output", nil),
			want: "query tmux: unexpected output",
		},
		{
			name: "time parse",
			err:  TimeParse("yesterday", errors.New("bad layout")),
			want: `parse timestamp: invalid timestamp "yesterday": bad layout`,
		},
		{
			name: "bare",
			err:  &Error{Kind: KindIO},
			want: "io error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	err := fmt.Errorf("record failed: %w", Storage("update rank", io.ErrClosedPipe))

	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.True(t, Is(err, KindStorage))
	assert.False(t, Is(err, KindIO))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindStorage, kind)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, Is(nil, KindIO))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t,
		"could not read or write the history database (list records): disk I/O error",
		UserMessage(Storage("list records", errors.New("disk I/O error"))),
	)
	assert.Equal(t,
		"an input/output operation failed (enter raw mode)",
		UserMessage(&Error{Kind: KindIO, Op: "enter raw mode"}),
	)
}
