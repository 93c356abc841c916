package user

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "users.xml"), xmldoc.DurabilityDirect, "BootPass123!")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestBootstrapManager(t *testing.T) {
	store := newTestStore(t)

	u, err := store.Authenticate("admin", "BootPass123!")
	if err != nil {
		t.Fatalf("authenticate bootstrap manager: %v", err)
	}
	if u.Role != RoleManager {
		t.Fatalf("role = %q, want %q", u.Role, RoleManager)
	}

	if _, err := store.Authenticate("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.xml")
	if _, err := NewStore(path, xmldoc.DurabilityDirect, "BootPass123!"); err != nil {
		t.Fatalf("first open: %v", err)
	}
	// 第二次打开不能再造一个管理员
	store, err := NewStore(path, xmldoc.DurabilityDirect, "OtherPass456!")
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if _, err := store.Authenticate("admin", "BootPass123!"); err != nil {
		t.Fatalf("original bootstrap password must keep working: %v", err)
	}
	if _, err := store.Authenticate("admin", "OtherPass456!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("new bootstrap password must not apply, got %v", err)
	}
}

func TestRegisterSalesperson(t *testing.T) {
	store := newTestStore(t)

	u, err := store.RegisterSalesperson("jane", "S3cret!pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != RoleSalesperson {
		t.Fatalf("role = %q, want %q", u.Role, RoleSalesperson)
	}

	got, err := store.Authenticate("jane", "S3cret!pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id mismatch: %q vs %q", got.ID, u.ID)
	}

	// 用户名大小写不敏感
	if _, err := store.Authenticate("JANE", "S3cret!pass"); err != nil {
		t.Fatalf("case-insensitive authenticate: %v", err)
	}

	if _, err := store.RegisterSalesperson("Jane", "another"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: got %v, want ErrUserExists", err)
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.RegisterSalesperson("  ", "pass"); err == nil {
		t.Fatal("blank username must be rejected")
	}
	if _, err := store.RegisterSalesperson("jane", ""); err == nil {
		t.Fatal("blank password must be rejected")
	}
}
