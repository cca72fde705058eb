package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/parlorchat/parlor/errs"
	"github.com/parlorchat/parlor/types"
)

func TestPostgres_CreateGroupChat(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	if chat.Kind != types.ChatKindGroup {
		t.Errorf("chat kind = %q, want %q", chat.Kind, types.ChatKindGroup)
	}
	if chat.Name == nil || *chat.Name != "gophers" {
		t.Errorf("chat name = %v, want gophers", chat.Name)
	}
	if chat.Participation == nil {
		t.Fatal("chat should carry the caller's participation")
	}
	if chat.Participation.Role != types.ChatRoleAdmin {
		t.Errorf("creator role = %q, want %q", chat.Participation.Role, types.ChatRoleAdmin)
	}

	ok, err := testPostgres.IsParticipant(ctx, chat.ID, admin.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if !ok {
		t.Error("creator should be a participant")
	}
}

func TestPostgres_CreateDirectChat(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	alice := createTestUser(t)
	bob := createTestUser(t)

	chat := createTestDirectChat(t, alice, bob)
	if chat.Kind != types.ChatKindDirect {
		t.Errorf("chat kind = %q, want %q", chat.Kind, types.ChatKindDirect)
	}
	if chat.Participation == nil || chat.Participation.Role != types.ChatRoleMember {
		t.Errorf("direct chat participation = %+v, want member role", chat.Participation)
	}

	// A second direct chat for the same pair conflicts, in either direction.
	in := types.CreateDirectChat{OtherUserID: bob.ID}
	in.SetLoggedInUserID(alice.ID)
	if _, err := testPostgres.CreateDirectChat(ctx, in); !errs.IsConflict(err) {
		t.Errorf("duplicate direct chat error = %v, want conflict", err)
	}

	reversed := types.CreateDirectChat{OtherUserID: alice.ID}
	reversed.SetLoggedInUserID(bob.ID)
	if _, err := testPostgres.CreateDirectChat(ctx, reversed); !errs.IsConflict(err) {
		t.Errorf("reversed duplicate direct chat error = %v, want conflict", err)
	}
}

func TestPostgres_CreateDirectChat_UnknownUser(t *testing.T) {
	skipIfNoDB(t)

	alice := createTestUser(t)

	in := types.CreateDirectChat{OtherUserID: "9m4e2mr0ui3e8a215n4g"}
	in.SetLoggedInUserID(alice.ID)
	if _, err := testPostgres.CreateDirectChat(context.Background(), in); !errs.IsNotFound(err) {
		t.Errorf("direct chat with unknown user error = %v, want not found", err)
	}
}

func TestPostgres_AddParticipant(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	member := createTestUser(t)
	outsider := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	in := types.AddParticipant{ChatID: chat.ID, NewUserID: member.ID}
	in.SetLoggedInUserID(admin.ID)

	participant, err := testPostgres.AddParticipant(ctx, in)
	if err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if participant.Role != types.ChatRoleMember {
		t.Errorf("added participant role = %q, want %q", participant.Role, types.ChatRoleMember)
	}
	if participant.User == nil || participant.User.ID != member.ID {
		t.Errorf("added participant user = %+v, want %s", participant.User, member.ID)
	}

	// Adding the same user twice fails.
	if _, err := testPostgres.AddParticipant(ctx, in); !errs.IsAlreadyExists(err) {
		t.Errorf("re-add participant error = %v, want already exists", err)
	}

	// Members cannot add participants.
	byMember := types.AddParticipant{ChatID: chat.ID, NewUserID: outsider.ID}
	byMember.SetLoggedInUserID(member.ID)
	if _, err := testPostgres.AddParticipant(ctx, byMember); !errs.IsPermissionDenied(err) {
		t.Errorf("add by member error = %v, want permission denied", err)
	}
}

func TestPostgres_AddParticipant_DirectChat(t *testing.T) {
	skipIfNoDB(t)

	alice := createTestUser(t)
	bob := createTestUser(t)
	carol := createTestUser(t)
	chat := createTestDirectChat(t, alice, bob)

	in := types.AddParticipant{ChatID: chat.ID, NewUserID: carol.ID}
	in.SetLoggedInUserID(alice.ID)
	if _, err := testPostgres.AddParticipant(context.Background(), in); !errs.IsPermissionDenied(err) {
		t.Errorf("add to direct chat error = %v, want permission denied", err)
	}
}

func TestPostgres_JoinRequestFlow(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	requester := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	request := types.RequestJoin{ChatID: chat.ID}
	request.SetLoggedInUserID(requester.ID)

	req, err := testPostgres.RequestJoin(ctx, request)
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if req.ChatID != chat.ID || req.UserID != requester.ID {
		t.Errorf("join request = %+v, want chat %s user %s", req, chat.ID, requester.ID)
	}

	// A second request while one is pending fails.
	if _, err := testPostgres.RequestJoin(ctx, request); !errs.IsAlreadyExists(err) {
		t.Errorf("duplicate join request error = %v, want already exists", err)
	}

	// Participants cannot request to join.
	byAdmin := types.RequestJoin{ChatID: chat.ID}
	byAdmin.SetLoggedInUserID(admin.ID)
	if _, err := testPostgres.RequestJoin(ctx, byAdmin); !errs.IsPermissionDenied(err) {
		t.Errorf("join request by participant error = %v, want permission denied", err)
	}

	// Only admins see pending requests.
	requests, err := testPostgres.JoinRequests(ctx, chat.ID, admin.ID)
	if err != nil {
		t.Fatalf("list join requests: %v", err)
	}
	if len(requests) != 1 || requests[0].ID != req.ID {
		t.Errorf("join requests = %+v, want the pending request", requests)
	}
	if _, err := testPostgres.JoinRequests(ctx, chat.ID, requester.ID); !errs.IsPermissionDenied(err) {
		t.Errorf("list join requests as outsider error = %v, want permission denied", err)
	}

	// Accepting requires admin; the requester themselves cannot respond.
	respond := types.RespondJoin{ChatID: chat.ID, RequestID: req.ID}
	respond.SetLoggedInUserID(requester.ID)
	if _, err := testPostgres.AcceptJoin(ctx, respond); !errs.IsPermissionDenied(err) {
		t.Errorf("accept by non-admin error = %v, want permission denied", err)
	}

	respond.SetLoggedInUserID(admin.ID)
	participant, err := testPostgres.AcceptJoin(ctx, respond)
	if err != nil {
		t.Fatalf("accept join: %v", err)
	}
	if participant.UserID != requester.ID || participant.Role != types.ChatRoleMember {
		t.Errorf("accepted participant = %+v, want member %s", participant, requester.ID)
	}

	// The request is consumed.
	if _, err := testPostgres.AcceptJoin(ctx, respond); !errs.IsNotFound(err) {
		t.Errorf("re-accept error = %v, want not found", err)
	}
}

func TestPostgres_RejectJoin(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	requester := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	request := types.RequestJoin{ChatID: chat.ID}
	request.SetLoggedInUserID(requester.ID)
	req, err := testPostgres.RequestJoin(ctx, request)
	if err != nil {
		t.Fatalf("request join: %v", err)
	}

	respond := types.RespondJoin{ChatID: chat.ID, RequestID: req.ID}
	respond.SetLoggedInUserID(admin.ID)
	if err := testPostgres.RejectJoin(ctx, respond); err != nil {
		t.Fatalf("reject join: %v", err)
	}

	// Rejection does not add the requester.
	ok, err := testPostgres.IsParticipant(ctx, chat.ID, requester.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if ok {
		t.Error("rejected requester should not be a participant")
	}

	// And the request is gone.
	if err := testPostgres.RejectJoin(ctx, respond); !errs.IsNotFound(err) {
		t.Errorf("re-reject error = %v, want not found", err)
	}
}

func TestPostgres_LeaveChat(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	member := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	add := types.AddParticipant{ChatID: chat.ID, NewUserID: member.ID}
	add.SetLoggedInUserID(admin.ID)
	if _, err := testPostgres.AddParticipant(ctx, add); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	// Admins cannot leave; they must delete the chat.
	leave := types.LeaveChat{ChatID: chat.ID}
	leave.SetLoggedInUserID(admin.ID)
	if err := testPostgres.LeaveChat(ctx, leave); !errs.IsPermissionDenied(err) {
		t.Errorf("admin leave error = %v, want permission denied", err)
	}

	leave.SetLoggedInUserID(member.ID)
	if err := testPostgres.LeaveChat(ctx, leave); err != nil {
		t.Fatalf("member leave: %v", err)
	}

	ok, err := testPostgres.IsParticipant(ctx, chat.ID, member.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if ok {
		t.Error("member should no longer be a participant after leaving")
	}
}

func TestPostgres_DeleteOwnCopy(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	alice := createTestUser(t)
	bob := createTestUser(t)
	chat := createTestDirectChat(t, alice, bob)

	del := types.DeleteOwnCopy{ChatID: chat.ID}
	del.SetLoggedInUserID(alice.ID)

	hardDeleted, err := testPostgres.DeleteOwnCopy(ctx, del)
	if err != nil {
		t.Fatalf("delete own copy: %v", err)
	}
	if hardDeleted {
		t.Error("first soft delete should not hard-delete the chat")
	}

	// The chat vanishes for alice but stays for bob.
	retrieve := types.RetrieveChat{ChatID: chat.ID}
	retrieve.SetLoggedInUserID(alice.ID)
	if _, err := testPostgres.Chat(ctx, retrieve); !errs.IsNotFound(err) {
		t.Errorf("soft-deleted chat error = %v, want not found", err)
	}

	retrieve.SetLoggedInUserID(bob.ID)
	if _, err := testPostgres.Chat(ctx, retrieve); err != nil {
		t.Errorf("other participant's copy should survive, got %v", err)
	}

	// Repeating the soft delete is idempotent.
	hardDeleted, err = testPostgres.DeleteOwnCopy(ctx, del)
	if err != nil {
		t.Fatalf("repeat delete own copy: %v", err)
	}
	if hardDeleted {
		t.Error("repeated soft delete should not hard-delete the chat")
	}

	// The last participant's soft delete hard-deletes the chat.
	del.SetLoggedInUserID(bob.ID)
	hardDeleted, err = testPostgres.DeleteOwnCopy(ctx, del)
	if err != nil {
		t.Fatalf("final delete own copy: %v", err)
	}
	if !hardDeleted {
		t.Error("last soft delete should hard-delete the chat")
	}

	if _, err := testPostgres.chatKind(ctx, chat.ID); !errs.IsNotFound(err) {
		t.Errorf("hard-deleted chat error = %v, want not found", err)
	}
}

func TestPostgres_DeleteOwnCopy_ConcurrentLastTwo(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	alice := createTestUser(t)
	bob := createTestUser(t)
	chat := createTestDirectChat(t, alice, bob)

	// Both remaining participants soft-delete at the same time. The chat row
	// lock serializes them, so the later transaction sees the earlier marker
	// and exactly one of them performs the hard delete.
	results := make([]bool, 2)
	errors := make([]error, 2)

	var wg sync.WaitGroup
	for i, user := range []types.User{alice, bob} {
		wg.Go(func() {
			del := types.DeleteOwnCopy{ChatID: chat.ID}
			del.SetLoggedInUserID(user.ID)
			results[i], errors[i] = testPostgres.DeleteOwnCopy(ctx, del)
		})
	}
	wg.Wait()

	for i, err := range errors {
		if err != nil {
			t.Fatalf("concurrent delete own copy %d: %v", i, err)
		}
	}

	if results[0] == results[1] {
		t.Errorf("hard deleted = %v and %v, want exactly one true", results[0], results[1])
	}

	if _, err := testPostgres.chatKind(ctx, chat.ID); !errs.IsNotFound(err) {
		t.Errorf("chat after concurrent soft deletes error = %v, want not found", err)
	}
}

func TestPostgres_LeaveChat_CompletesHardDelete(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	bob := createTestUser(t)
	carol := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	for _, user := range []types.User{bob, carol} {
		add := types.AddParticipant{ChatID: chat.ID, NewUserID: user.ID}
		add.SetLoggedInUserID(admin.ID)
		if _, err := testPostgres.AddParticipant(ctx, add); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}

	for _, user := range []types.User{admin, carol} {
		del := types.DeleteOwnCopy{ChatID: chat.ID}
		del.SetLoggedInUserID(user.ID)
		hardDeleted, err := testPostgres.DeleteOwnCopy(ctx, del)
		if err != nil {
			t.Fatalf("delete own copy: %v", err)
		}
		if hardDeleted {
			t.Error("chat should survive while an unmarked participant remains")
		}
	}

	// Bob leaving leaves only marked participants behind, so the chat must
	// not linger as a fully marked husk.
	leave := types.LeaveChat{ChatID: chat.ID}
	leave.SetLoggedInUserID(bob.ID)
	if err := testPostgres.LeaveChat(ctx, leave); err != nil {
		t.Fatalf("leave chat: %v", err)
	}

	if _, err := testPostgres.chatKind(ctx, chat.ID); !errs.IsNotFound(err) {
		t.Errorf("chat after last unmarked participant left error = %v, want not found", err)
	}
}

func TestPostgres_DeleteGroupChat(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	admin := createTestUser(t)
	member := createTestUser(t)
	chat := createTestGroupChat(t, admin, "gophers")

	add := types.AddParticipant{ChatID: chat.ID, NewUserID: member.ID}
	add.SetLoggedInUserID(admin.ID)
	if _, err := testPostgres.AddParticipant(ctx, add); err != nil {
		t.Fatalf("add participant: %v", err)
	}

	del := types.DeleteGroupChat{ChatID: chat.ID}
	del.SetLoggedInUserID(member.ID)
	if err := testPostgres.DeleteGroupChat(ctx, del); !errs.IsPermissionDenied(err) {
		t.Errorf("delete by member error = %v, want permission denied", err)
	}

	del.SetLoggedInUserID(admin.ID)
	if err := testPostgres.DeleteGroupChat(ctx, del); err != nil {
		t.Fatalf("delete group chat: %v", err)
	}

	// The chat vanishes for everyone.
	if _, err := testPostgres.chatKind(ctx, chat.ID); !errs.IsNotFound(err) {
		t.Errorf("deleted chat error = %v, want not found", err)
	}
}

func TestPostgres_Chats(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()
	alice := createTestUser(t)
	bob := createTestUser(t)

	group := createTestGroupChat(t, alice, "gophers")
	direct := createTestDirectChat(t, alice, bob)

	list := types.ListChats{}
	list.SetLoggedInUserID(alice.ID)

	chats, err := testPostgres.Chats(ctx, list)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("len(chats) = %d, want 2", len(chats))
	}

	// Newest first.
	if chats[0].ID != direct.ID || chats[1].ID != group.ID {
		t.Errorf("chats order = [%s %s], want [%s %s]", chats[0].ID, chats[1].ID, direct.ID, group.ID)
	}

	// Bob only shares the direct chat.
	list.SetLoggedInUserID(bob.ID)
	chats, err = testPostgres.Chats(ctx, list)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != direct.ID {
		t.Errorf("bob's chats = %+v, want only the direct chat", chats)
	}
}
