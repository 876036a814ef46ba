package gate

import (
	"testing"

	"koperasihub/internal/models"
)

func TestCheckSection(t *testing.T) {
	vendor := models.User{ID: "u-1", Role: "vendor"}
	affiliator := models.User{ID: "u-2", Role: "affiliator"}

	tests := []struct {
		name     string
		path     string
		user     models.User
		hydrated bool
		allowed  bool
		home     string
	}{
		{"own section", "/dashboard/vendor/products", vendor, true, true, "/dashboard/vendor"},
		{"other section", "/dashboard/koperasi", vendor, true, false, "/dashboard/vendor"},
		{"affiliator promotor", "/dashboard/promotor", affiliator, true, true, "/dashboard/promotor"},
		{"not hydrated", "/dashboard/vendor", models.User{}, false, false, LoginPath},
		{"unknown role", "/dashboard/vendor", models.User{Role: "admin"}, true, false, LoginPath},
		{"outside sections", "/store/acme", vendor, true, true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckSection(tc.path, tc.user, tc.hydrated)
			if got.Allowed != tc.allowed || got.Home != tc.home {
				t.Fatalf("expected allowed=%v home=%q, got %+v", tc.allowed, tc.home, got)
			}
		})
	}
}
