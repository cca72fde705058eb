package types

import (
	"strings"
	"testing"
)

func TestMessageStatus_CanTransitionTo(t *testing.T) {
	tt := []struct {
		name string
		from MessageStatus
		to   MessageStatus
		want bool
	}{
		{
			name: "sent_to_delivered",
			from: MessageStatusSent,
			to:   MessageStatusDelivered,
			want: true,
		},
		{
			name: "sent_to_read",
			from: MessageStatusSent,
			to:   MessageStatusRead,
			want: true,
		},
		{
			name: "delivered_to_read",
			from: MessageStatusDelivered,
			to:   MessageStatusRead,
			want: true,
		},
		{
			name: "same_status_is_allowed",
			from: MessageStatusDelivered,
			to:   MessageStatusDelivered,
			want: true,
		},
		{
			name: "delivered_to_sent_regresses",
			from: MessageStatusDelivered,
			to:   MessageStatusSent,
			want: false,
		},
		{
			name: "read_to_sent_regresses",
			from: MessageStatusRead,
			to:   MessageStatusSent,
			want: false,
		},
		{
			name: "read_to_delivered_regresses",
			from: MessageStatusRead,
			to:   MessageStatusDelivered,
			want: false,
		},
		{
			name: "unknown_next_status",
			from: MessageStatusSent,
			to:   MessageStatus("archived"),
			want: false,
		},
		{
			name: "unknown_current_status",
			from: MessageStatus(""),
			to:   MessageStatusRead,
			want: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCreateMessage_Validate(t *testing.T) {
	validChatID := "9m4e2mr0ui3e8a215n4g"

	tt := []struct {
		name    string
		in      CreateMessage
		wantErr bool
	}{
		{
			name:    "valid",
			in:      CreateMessage{ChatID: validChatID, Content: "hello"},
			wantErr: false,
		},
		{
			name:    "missing_chat_id",
			in:      CreateMessage{Content: "hello"},
			wantErr: true,
		},
		{
			name:    "malformed_chat_id",
			in:      CreateMessage{ChatID: "nope", Content: "hello"},
			wantErr: true,
		},
		{
			name:    "empty_content",
			in:      CreateMessage{ChatID: validChatID},
			wantErr: true,
		},
		{
			name:    "content_too_long",
			in:      CreateMessage{ChatID: validChatID, Content: strings.Repeat("a", 1001)},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestChangeMessageStatus_Validate(t *testing.T) {
	validMessageID := "9m4e2mr0ui3e8a215n4g"

	tt := []struct {
		name    string
		in      ChangeMessageStatus
		wantErr bool
	}{
		{
			name:    "valid",
			in:      ChangeMessageStatus{MessageID: validMessageID, Status: MessageStatusRead},
			wantErr: false,
		},
		{
			name:    "unknown_status",
			in:      ChangeMessageStatus{MessageID: validMessageID, Status: "seen"},
			wantErr: true,
		},
		{
			name:    "missing_message_id",
			in:      ChangeMessageStatus{Status: MessageStatusRead},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
