package util

import "testing"

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name   string
		config ConnectionConfig
		want   string
	}{
		{
			name:   "minimal",
			config: ConnectionConfig{Host: "localhost", Port: 5432, Database: "app", User: "builder"},
			want:   "host=localhost port=5432 dbname=app user=builder",
		},
		{
			name: "all fields",
			config: ConnectionConfig{
				Host: "db", Port: 6543, Database: "app", User: "builder",
				Password: "secret", SSLMode: "require", ApplicationName: "plrustgen",
			},
			want: "host=db port=6543 dbname=app user=builder password=secret sslmode=require application_name=plrustgen",
		},
		{
			name:   "quoted password",
			config: ConnectionConfig{Host: "db", Port: 5432, Database: "app", User: "u", Password: `it's a \secret`},
			want:   `host=db port=5432 dbname=app user=u password='it\'s a \\secret'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDSN(&tt.config); got != tt.want {
				t.Errorf("buildDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
