package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gomail/gomail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*gomail.Message
	err      error
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.messages = append(r.messages, m...)
	return r.err
}

func TestSend(t *testing.T) {
	rec := &recordingSender{}
	m := NewWithSender("noreply@elderlink.test", rec)

	require.NoError(t, m.Send([]string{"a@example.com", "b@example.com"}, "Emergency", "help"))
	require.Len(t, rec.messages, 1)

	msg := rec.messages[0]
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Emergency"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "help")
}

func TestSendWithoutRecipients(t *testing.T) {
	rec := &recordingSender{}
	require.NoError(t, NewWithSender("x@y", rec).Send(nil, "s", "b"))
	assert.Empty(t, rec.messages)
}

func TestSendDisabled(t *testing.T) {
	m := NewWithSender("x@y", nil)
	assert.NoError(t, m.Send([]string{"a@example.com"}, "s", "b"))
}

func TestSendError(t *testing.T) {
	rec := &recordingSender{err: errors.New("dial tcp: refused")}
	err := NewWithSender("x@y", rec).Send([]string{"a@example.com"}, "s", "b")
	assert.ErrorContains(t, err, "refused")
}
