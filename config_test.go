package nodepool

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default config is valid", DefaultConfig(), false},
		{"minimal limit", Config{Limit: 1}, false},
		{"explicit local limit", Config{Limit: 4, LocalLimit: 2}, false},
		{"zero limit", Config{Limit: 0}, true},
		{"negative limit", Config{Limit: -1}, true},
		{"negative local limit", Config{Limit: 4, LocalLimit: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected config to validate, got %v", err)
			}
		})
	}
}

func TestConfigLocalLimit(t *testing.T) {
	if got := (Config{Limit: 8}).localLimit(); got != 8 {
		t.Errorf("expected LocalLimit to default to Limit, got %d", got)
	}
	if got := (Config{Limit: 8, LocalLimit: 2}).localLimit(); got != 2 {
		t.Errorf("expected explicit LocalLimit, got %d", got)
	}
}
