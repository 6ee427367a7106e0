package service

import (
	"context"
	"errors"
	"testing"

	"retail-backoffice/internal/settlement"
)

func TestStoreProfile(t *testing.T) {
	repo := &fakeStoreRepo{}
	svc := NewStoreService(repo)
	ctx := context.Background()

	if _, err := svc.Get(ctx); !errors.Is(err, settlement.ErrNotFound) {
		t.Fatalf("get before create err = %v, want not found", err)
	}

	steps := []struct {
		name        string
		req         StoreRequest
		wantKind    error
		wantCreated bool
		wantName    string
		wantEmail   *string
	}{
		{"create without phone", StoreRequest{Name: str("Toko Demo"), Address: str("Jl. Merdeka 1")}, settlement.ErrInvalid, false, "", nil},
		{"bad email", StoreRequest{Name: str("Toko Demo"), Address: str("Jl. Merdeka 1"), Phone: str("021"), Email: str("nope")}, settlement.ErrInvalid, false, "", nil},
		{"create", StoreRequest{Name: str(" Toko Demo "), Address: str("Jl. Merdeka 1"), Phone: str("021"), Email: str("toko@demo.id")}, nil, true, "Toko Demo", str("toko@demo.id")},
		{"patch keeps other fields", StoreRequest{Site: str("demo.id")}, nil, false, "Toko Demo", str("toko@demo.id")},
		{"blank email clears it", StoreRequest{Email: str(" ")}, nil, false, "Toko Demo", nil},
		{"blank name refused", StoreRequest{Name: str("")}, settlement.ErrInvalid, false, "", nil},
	}
	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			store, created, err := svc.Update(ctx, &req, Actor{})
			if tt.wantKind != nil {
				if !errors.Is(err, tt.wantKind) {
					t.Fatalf("err = %v, want %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if created != tt.wantCreated || store.Name != tt.wantName {
				t.Fatalf("created = %v name = %q, want %v %q", created, store.Name, tt.wantCreated, tt.wantName)
			}
			if (store.Email == nil) != (tt.wantEmail == nil) || (store.Email != nil && *store.Email != *tt.wantEmail) {
				t.Fatalf("email = %v, want %v", store.Email, tt.wantEmail)
			}
		})
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Toko Demo" || got.Site == nil || *got.Site != "demo.id" || got.Email != nil {
		t.Fatalf("store = %+v", got)
	}
}
