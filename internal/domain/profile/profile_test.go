package profile

import "testing"

func TestIsProxyRequiresPrefixAndNoLineID(t *testing.T) {
	line := "U123"
	cases := []struct {
		name string
		p    *Profile
		want bool
	}{
		{"proxy", &Profile{ID: "manual-child-1"}, true},
		{"real member", &Profile{ID: "U123", LineUserID: &line}, false},
		{"prefixed but linked", &Profile{ID: "manual-child-2", LineUserID: &line}, false},
		{"no prefix no line id", &Profile{ID: "legacy-1"}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := tc.p.IsProxy(); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestRoleHelpers(t *testing.T) {
	parent := RoleParent
	fam := "f1"
	p := &Profile{ID: "U1", FamilyRole: &parent, FamilyID: &fam}
	if !p.IsParent() || !p.InFamily() {
		t.Fatalf("expected parent in family: %+v", p)
	}
	empty := ""
	q := &Profile{ID: "U2", FamilyID: &empty}
	if q.IsParent() || q.InFamily() {
		t.Fatalf("expected no role and no family")
	}
}
