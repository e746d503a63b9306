package plugin

import (
	"errors"
	"testing"
)

func pingSchema() Schema {
	return Schema{
		Properties: map[string]Property{
			"host":    {Type: TypeString, Description: "Target host"},
			"count":   {Type: TypeInteger, Default: 3},
			"timeout": {Type: TypeNumber, Default: 1.5},
			"audible": {Type: TypeBoolean, Default: false},
			"proto":   {Type: TypeString, Enum: []any{"icmp", "tcp"}, Default: "icmp"},
		},
		Required: []string{"host"},
	}
}

func TestSchemaValidate(t *testing.T) {
	schema := pingSchema()

	tests := []struct {
		name    string
		cfg     map[string]any
		wantErr bool
	}{
		{"minimal valid", map[string]any{"host": "10.0.0.1"}, false},
		{"all keys valid", map[string]any{
			"host": "10.0.0.1", "count": 5, "timeout": 2.0, "audible": true, "proto": "tcp",
		}, false},
		{"missing required", map[string]any{"count": 5}, true},
		{"unknown key", map[string]any{"host": "h", "interval": 1}, true},
		{"string where integer", map[string]any{"host": "h", "count": "7"}, true},
		{"bool where string", map[string]any{"host": true}, true},
		{"integer where boolean", map[string]any{"host": "h", "audible": 1}, true},
		{"fractional where integer", map[string]any{"host": "h", "count": 2.5}, true},
		{"integral float64 as integer", map[string]any{"host": "h", "count": float64(4)}, false},
		{"int where number", map[string]any{"host": "h", "timeout": 2}, false},
		{"enum member", map[string]any{"host": "h", "proto": "icmp"}, false},
		{"enum violation", map[string]any{"host": "h", "proto": "udp"}, true},
		{"empty config missing required", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestSchemaValidateNoRequired(t *testing.T) {
	schema := Schema{Properties: map[string]Property{
		"interface": {Type: TypeString, Default: "wlan0"},
	}}

	if err := schema.Validate(map[string]any{}); err != nil {
		t.Errorf("Validate(empty) error = %v, want nil", err)
	}
}

func TestSchemaValidateNumericEnum(t *testing.T) {
	schema := Schema{Properties: map[string]Property{
		"count": {Type: TypeInteger, Enum: []any{1, 3, 5}},
	}}

	// JSON decoding yields float64; the enum declares ints.
	if err := schema.Validate(map[string]any{"count": float64(3)}); err != nil {
		t.Errorf("Validate(float64 3) error = %v, want nil", err)
	}
	if err := schema.Validate(map[string]any{"count": float64(2)}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate(float64 2) error = %v, want ErrInvalidConfig", err)
	}
}

func TestSchemaApplyDefaults(t *testing.T) {
	schema := pingSchema()

	cfg := Config{"host": "10.0.0.1", "count": 10}
	merged := schema.ApplyDefaults(cfg)

	if merged["host"] != "10.0.0.1" {
		t.Errorf("host = %v", merged["host"])
	}
	if merged["count"] != 10 {
		t.Errorf("explicit count overridden: %v", merged["count"])
	}
	if merged["timeout"] != 1.5 {
		t.Errorf("timeout default = %v, want 1.5", merged["timeout"])
	}
	if merged["proto"] != "icmp" {
		t.Errorf("proto default = %v, want icmp", merged["proto"])
	}

	// The input must not be mutated.
	if len(cfg) != 2 {
		t.Errorf("input config mutated: %v", cfg)
	}
}
