package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs       []published
	publishErr error
	flushErr   error
	closed     bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestNATSPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")
	require.Equal(t, DefaultSubject, p.Subject())

	err := p.Publish(t.Context(), Message{
		ReloadID:    "r-1",
		Type:        "ConfigLoaded",
		Trigger:     "config",
		ConfigPath:  "/site/mkdocs.yml",
		SiteName:    "PyCircStat2",
		Fingerprint: "abc",
		NavLeaves:   5,
		NavNodes:    7,
	})
	require.NoError(t, err)
	require.Len(t, fc.msgs, 1)
	require.Equal(t, "sitenav.reload", fc.msgs[0].subject)

	var got Message
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	require.Equal(t, "r-1", got.ReloadID)
	require.Equal(t, "PyCircStat2", got.SiteName)
	require.Equal(t, 7, got.NavNodes)
	require.False(t, got.Timestamp.IsZero())
	require.Empty(t, got.Error)

	require.NoError(t, p.Close())
	require.True(t, fc.closed)
}

func TestNATSPublisher_KeepsTimestampAndSubject(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "docs.reload")
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(t.Context(), Message{ReloadID: "r", Timestamp: ts}))

	var got Message
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &got))
	require.True(t, ts.Equal(got.Timestamp))
	require.Equal(t, "docs.reload", fc.msgs[0].subject)
}

func TestNATSPublisher_Errors(t *testing.T) {
	p := newPublisher(&fakeConn{publishErr: errors.New("connection closed")}, "")
	err := p.Publish(t.Context(), Message{ReloadID: "r"})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))

	p = newPublisher(&fakeConn{flushErr: context.DeadlineExceeded}, "")
	err = p.Publish(t.Context(), Message{ReloadID: "r"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.Publish(t.Context(), Message{}))
	require.NoError(t, p.Close())
}
