package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/domain/analytics"
	"github.com/yungbote/stampcard-backend/internal/pkg/pointers"
	"github.com/yungbote/stampcard-backend/internal/realtime"
)

func TestFamilyCreateJoinAndMine(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	parent := testutil.SeedProfile(t, bg, h.tx, "parent", 10)
	kid := testutil.SeedProfile(t, bg, h.tx, "kid", 5)

	_, err := h.familySvc.Create(asUser(parent.ID), "   ")
	wantAPIErr(t, "Create(blank)", err, http.StatusBadRequest, "invalid_family_name")

	f, err := h.familySvc.Create(asUser(parent.ID), " 佐藤家 ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.Name != "佐藤家" || f.RepresentativeUserID != parent.ID {
		t.Fatalf("Create: %+v", f)
	}
	_, err = h.familySvc.Create(asUser(parent.ID), "again")
	wantAPIErr(t, "Create(twice)", err, http.StatusBadRequest, "already_in_family")

	_, err = h.familySvc.Join(asUser(kid.ID), "not-a-code")
	wantAPIErr(t, "Join(bad code)", err, http.StatusBadRequest, "invalid_invite_code")
	_, err = h.familySvc.Join(asUser(kid.ID), uuid.NewString())
	wantAPIErr(t, "Join(unknown code)", err, http.StatusBadRequest, "invalid_invite_code")

	joined, err := h.familySvc.Join(asUser(kid.ID), f.ID.String())
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.ID != f.ID {
		t.Fatalf("Join: %+v", joined)
	}
	if got := h.reload(t, kid.ID); got.Role() != types.RoleChild {
		t.Fatalf("kid role: %q", got.Role())
	}

	detail, err := h.familySvc.Mine(asUser(kid.ID))
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if detail.MemberCount != 2 || detail.TotalStampCount != 15 || len(detail.Members) != 2 {
		t.Fatalf("Mine: %+v", detail)
	}
	if detail.Family.Name != "佐藤家" {
		t.Fatalf("Mine family: %+v", detail.Family)
	}
	if chs := h.emitter.channels(realtime.SSEEventFamilyUpdated); len(chs) != 2 || chs[1] != realtime.FamilyChannel(f.ID.String()) {
		t.Fatalf("family updates: %v", chs)
	}

	loner := testutil.SeedProfile(t, bg, h.tx, "loner", 0)
	_, err = h.familySvc.Mine(asUser(loner.ID))
	wantAPIErr(t, "Mine(no family)", err, http.StatusNotFound, "family_not_found")
}

func TestFamilyRenameParentOnly(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	parent := testutil.SeedProfile(t, bg, h.tx, "parent", 0)
	f := testutil.SeedFamily(t, bg, h.tx, parent, "old")
	kid := testutil.SeedProfile(t, bg, h.tx, "kid", 0)
	testutil.JoinFamily(t, bg, h.tx, kid, f, types.RoleChild)

	_, err := h.familySvc.Rename(asUser(kid.ID), "kid's")
	wantAPIErr(t, "Rename(child)", err, http.StatusForbidden, "parent_only")

	got, err := h.familySvc.Rename(asUser(parent.ID), "new")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got.Name != "new" {
		t.Fatalf("Rename: %q", got.Name)
	}
}

func TestFamilyProxyMemberLifecycle(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	parent := testutil.SeedProfile(t, bg, h.tx, "parent", 0)
	f := testutil.SeedFamily(t, bg, h.tx, parent, "家族")
	ctx := asUser(parent.ID)

	child, err := h.familySvc.AddProxyMember(ctx, AddMemberInput{ChildName: "たろう", TicketNumber: pointers.String("C-1")})
	if err != nil {
		t.Fatalf("AddProxyMember: %v", err)
	}
	if !strings.HasPrefix(child.ID, "manual-child-") || child.LineUserID != nil {
		t.Fatalf("proxy ids: %+v", child)
	}
	if !child.IsProxy() || child.ViewMode != types.ViewModeKids || child.Role() != types.RoleChild {
		t.Fatalf("proxy defaults: %+v", child)
	}
	if child.FamilyID == nil || *child.FamilyID != f.ID.String() {
		t.Fatalf("proxy family: %v", child.FamilyID)
	}
	if n := h.eventCount(t, parent.ID, analytics.EventFamilyMemberAdd); n != 1 {
		t.Fatalf("member add events: %d", n)
	}

	// give the proxy some history so the hard delete has rows to remove
	if _, err := h.stamps.Slot(asUser(child.ID), "", 4); err != nil {
		t.Fatalf("Slot(child): %v", err)
	}

	edited, err := h.familySvc.EditMember(ctx, child.ID, EditMemberInput{ChildName: pointers.String("じろう"), TicketNumber: pointers.String("")})
	if err != nil {
		t.Fatalf("EditMember: %v", err)
	}
	if edited.DisplayName != "じろう" || edited.RealName == nil || *edited.RealName != "じろう" || edited.TicketNumber != nil {
		t.Fatalf("EditMember: %+v", edited)
	}

	res, err := h.familySvc.RemoveMember(ctx, child.ID)
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if !res.HardDeleted {
		t.Fatalf("proxy should be hard deleted: %+v", res)
	}
	if p, _ := h.profiles.GetByID(bg, h.tx, child.ID); p != nil {
		t.Fatalf("proxy profile still present")
	}
	if sum, _ := h.history.SumAmountByUser(bg, h.tx, child.ID); sum != 0 {
		t.Fatalf("proxy ledger not removed: %d", sum)
	}
	if n := h.eventCount(t, parent.ID, analytics.EventFamilyMemberDelete); n != 1 {
		t.Fatalf("member delete events: %d", n)
	}
}

func TestFamilyRemoveLineMemberOnlyUnlinks(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	parent := testutil.SeedProfile(t, bg, h.tx, "parent", 0)
	f := testutil.SeedFamily(t, bg, h.tx, parent, "家族")
	kid := testutil.SeedProfile(t, bg, h.tx, "line kid", 3)
	testutil.JoinFamily(t, bg, h.tx, kid, f, types.RoleChild)

	impostor := testutil.SeedProfile(t, bg, h.tx, "impostor", 0)
	ctx := asUser(parent.ID)

	_, err := h.familySvc.RemoveMember(ctx, parent.ID)
	wantAPIErr(t, "RemoveMember(self)", err, http.StatusBadRequest, "cannot_remove_self")
	_, err = h.familySvc.RemoveMember(ctx, impostor.ID)
	wantAPIErr(t, "RemoveMember(other family)", err, http.StatusForbidden, "forbidden")

	res, err := h.familySvc.RemoveMember(ctx, kid.ID)
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if res.HardDeleted {
		t.Fatalf("LINE member must not be hard deleted")
	}
	got := h.reload(t, kid.ID)
	if got.InFamily() || got.FamilyRole != nil || got.StampCount != 3 {
		t.Fatalf("unlinked member: %+v", got)
	}
}

func TestFamilyUnlink(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	parent := testutil.SeedProfile(t, bg, h.tx, "parent", 0)
	f := testutil.SeedFamily(t, bg, h.tx, parent, "家族")
	kid := testutil.SeedProfile(t, bg, h.tx, "kid", 0)
	testutil.JoinFamily(t, bg, h.tx, kid, f, types.RoleChild)
	stranger := testutil.SeedProfile(t, bg, h.tx, "stranger", 0)

	err := h.familySvc.Unlink(asUser(parent.ID), stranger.ID)
	wantAPIErr(t, "Unlink(stranger)", err, http.StatusBadRequest, "not_family_member")
	err = h.familySvc.Unlink(asUser(kid.ID), parent.ID)
	wantAPIErr(t, "Unlink(as child)", err, http.StatusForbidden, "parent_only")

	if err := h.familySvc.Unlink(asUser(parent.ID), kid.ID); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if got := h.reload(t, kid.ID); got.InFamily() {
		t.Fatalf("kid still linked: %v", got.FamilyID)
	}
}

func TestFamilyAddMemberRequiresParentWithFamily(t *testing.T) {
	h := newHarness(t)
	bg := context.Background()
	solo := testutil.SeedProfile(t, bg, h.tx, "solo", 0)

	_, err := h.familySvc.AddProxyMember(asUser(solo.ID), AddMemberInput{ChildName: "x"})
	wantAPIErr(t, "AddProxyMember(no role)", err, http.StatusForbidden, "parent_only")

	role := types.RoleParent
	if err := h.profiles.SetFamily(bg, h.tx, solo.ID, nil, &role); err != nil {
		t.Fatalf("SetFamily: %v", err)
	}
	_, err = h.familySvc.AddProxyMember(asUser(solo.ID), AddMemberInput{ChildName: "x"})
	wantAPIErr(t, "AddProxyMember(no family)", err, http.StatusBadRequest, "no_family")
	_, err = h.familySvc.AddProxyMember(asUser(solo.ID), AddMemberInput{ChildName: " "})
	wantAPIErr(t, "AddProxyMember(blank)", err, http.StatusBadRequest, "invalid_request")
}
