package provisioning

import "testing"

func TestCommandBuilders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "mkdir",
			got:  mkdirCommand("/opt/my hub"),
			want: "mkdir -p '/opt/my hub'",
		},
		{
			name: "command exists",
			got:  commandExists("curl"),
			want: "command -v 'curl' >/dev/null 2>&1",
		},
		{
			name: "curl download",
			got:  downloadCommand("curl", "https://example.com/a.tar.gz", "/opt/hub.tar.gz"),
			want: "curl -fsSL -o '/opt/hub.tar.gz' 'https://example.com/a.tar.gz'",
		},
		{
			name: "wget download",
			got:  downloadCommand("wget", "https://example.com/a.tar.gz", "/opt/hub.tar.gz"),
			want: "wget -q -O '/opt/hub.tar.gz' 'https://example.com/a.tar.gz'",
		},
		{
			name: "file exists",
			got:  fileExists("/opt/hub/package.json"),
			want: "test -f '/opt/hub/package.json'",
		},
		{
			name: "verify archive",
			got:  verifyArchiveCommand("/opt/hub.tar.gz"),
			want: "tar -tzf '/opt/hub.tar.gz' >/dev/null",
		},
		{
			name: "extract removes the archive",
			got:  extractCommand("/opt/hub.tar.gz", "/opt/hub"),
			want: "tar -xzf '/opt/hub.tar.gz' -C '/opt/hub' --strip-components=1 && rm -f '/opt/hub.tar.gz'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDownloadCommandQuotesHostileURL(t *testing.T) {
	t.Parallel()

	got := downloadCommand("curl", "https://example.com/a.tar.gz?sig=a&b=$(reboot)", "/opt/hub.tar.gz")
	want := "curl -fsSL -o '/opt/hub.tar.gz' 'https://example.com/a.tar.gz?sig=a&b=$(reboot)'"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
