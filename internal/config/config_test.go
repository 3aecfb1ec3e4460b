package config

import (
	"reflect"
	"testing"
)

func TestParseFillsDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"hands_per_game": 3, "audit_secret": "s"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Defaults()
	want.HandsPerGame = 3
	want.AuditSecret = "s"
	if !reflect.DeepEqual(c, want) {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{"hands_per_game":`},
		{name: "negative hands", data: `{"hands_per_game": -1}`},
		{name: "negative rules", data: `{"max_rules": -2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	base := Defaults()
	tests := []struct {
		name string
		env  map[string]string
		want func(GameConfig) GameConfig
	}{
		{name: "empty", env: nil, want: func(c GameConfig) GameConfig { return c }},
		{
			name: "overrides",
			env:  map[string]string{EnvBotsEnabled: "false", EnvHandsPerGame: " 7 ", EnvAuditSecret: "k"},
			want: func(c GameConfig) GameConfig {
				c.BotsEnabled = false
				c.HandsPerGame = 7
				c.AuditSecret = "k"
				return c
			},
		},
		{
			name: "malformed ignored",
			env:  map[string]string{EnvBotsEnabled: "maybe", EnvHandsPerGame: "-3", EnvAuditSecret: "  "},
			want: func(c GameConfig) GameConfig { return c },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.ApplyEnv(tt.env)
			if want := tt.want(base); !reflect.DeepEqual(got, want) {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestGetGameConfigWithoutLoad(t *testing.T) {
	if cfg != nil {
		t.Skip("config already loaded")
	}
	if got := GetGameConfig(); !reflect.DeepEqual(got, Defaults()) {
		t.Errorf("expected defaults, got %+v", got)
	}
}
