package queue

import (
	"bytes"
	"testing"
)

func TestWriteAuditLine(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "rsvp",
			body: `{"type":"rsvp.created","event_id":"e1","user_id":7,"occurred_at":"2025-06-01T12:00:00Z"}`,
			want: "[2025-06-01T12:00:00Z] rsvp.created | event_id=e1 | user_id=7\n",
		},
		{
			name: "event deleted without user",
			body: `{"type":"event.deleted","event_id":"e1","occurred_at":"2025-06-01T12:00:00Z"}`,
			want: "[2025-06-01T12:00:00Z] event.deleted | event_id=e1\n",
		},
		{name: "not json", body: `nope`, wantErr: true},
		{name: "missing type", body: `{"event_id":"e1"}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteAuditLine(&buf, []byte(tc.body))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, wrote %q", buf.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
