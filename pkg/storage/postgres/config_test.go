package postgres

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "zero value",
			want: Config{
				MaxConns:        DefaultMaxConns,
				MaxConnLifetime: DefaultConnLifetime,
				ApplicationName: DefaultApplicationName,
			},
		},
		{
			name: "explicit values kept",
			in:   Config{MaxConns: 10, MinConns: 2, MaxConnLifetime: time.Minute, ApplicationName: "batch"},
			want: Config{MaxConns: 10, MinConns: 2, MaxConnLifetime: time.Minute, ApplicationName: "batch"},
		},
		{
			name: "min capped at max",
			in:   Config{MaxConns: 2, MinConns: 8},
			want: Config{
				MaxConns:        2,
				MinConns:        2,
				MaxConnLifetime: DefaultConnLifetime,
				ApplicationName: DefaultApplicationName,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.defaults()
			if got != tt.want {
				t.Errorf("defaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
