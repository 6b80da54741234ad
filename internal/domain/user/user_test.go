package user

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Alice@Example.COM", "Alice@example.com"},
		{"  bob@host.io ", "bob@host.io"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
		{"odd@name@Domain.ORG", "odd@name@domain.org"},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfileUpdateApplyKeepsNilFields(t *testing.T) {
	u := New(NewAccount{OfficeEmail: "a@example.com", FirstName: "Ada", LastName: "L", Role: RoleEmployee})
	before := u.UpdatedAt

	email := " ADA@Example.com"
	inactive := false
	ProfileUpdate{OfficeEmail: &email, IsActive: &inactive}.Apply(&u)

	if u.FirstName != "Ada" || u.LastName != "L" {
		t.Fatalf("names changed: %+v", u)
	}
	if u.OfficeEmail != "ADA@example.com" || u.IsActive {
		t.Fatalf("update not applied: %+v", u)
	}
	if u.UpdatedAt.Before(before) {
		t.Fatalf("updated_at went backwards")
	}
}

func TestRoleIsValid(t *testing.T) {
	if !RoleEmployee.IsValid() || !RoleManager.IsValid() {
		t.Fatalf("known roles must be valid")
	}
	if Role("admin").IsValid() || Role("").IsValid() {
		t.Fatalf("unknown roles must be invalid")
	}
}
