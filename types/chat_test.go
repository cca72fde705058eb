package types

import (
	"strings"
	"testing"
)

func TestCreateGroupChat_Validate(t *testing.T) {
	tt := []struct {
		name    string
		in      CreateGroupChat
		wantErr bool
	}{
		{
			name:    "valid",
			in:      CreateGroupChat{Name: "gophers"},
			wantErr: false,
		},
		{
			name:    "trims_whitespace",
			in:      CreateGroupChat{Name: "  gophers  "},
			wantErr: false,
		},
		{
			name:    "empty_name",
			in:      CreateGroupChat{Name: "   "},
			wantErr: true,
		},
		{
			name:    "name_too_long",
			in:      CreateGroupChat{Name: strings.Repeat("x", 73)},
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

func TestCreateDirectChat_Validate(t *testing.T) {
	tt := []struct {
		name    string
		in      CreateDirectChat
		wantErr bool
	}{
		{
			name:    "valid",
			in:      CreateDirectChat{OtherUserID: "9m4e2mr0ui3e8a215n4g"},
			wantErr: false,
		},
		{
			name:    "missing_other_user_id",
			in:      CreateDirectChat{},
			wantErr: true,
		},
		{
			name:    "malformed_other_user_id",
			in:      CreateDirectChat{OtherUserID: "not-an-id"},
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

func TestChatKind_Valid(t *testing.T) {
	tt := []struct {
		kind ChatKind
		want bool
	}{
		{ChatKindGroup, true},
		{ChatKindDirect, true},
		{ChatKind("channel"), false},
		{ChatKind(""), false},
	}

	for _, tc := range tt {
		if got := tc.kind.Valid(); got != tc.want {
			t.Errorf("ChatKind(%q).Valid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}
