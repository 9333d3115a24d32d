package netstatus

import (
	"testing"

	"github.com/Ning0612/Cloudbrowse/internal/testutil"
)

func TestSysfs_IsWiFi(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  bool
	}{
		{
			name:  "wireless interface up",
			files: map[string]string{"wlan0/wireless/.keep": "", "wlan0/operstate": "up\n"},
			want:  true,
		},
		{
			name:  "wireless interface down",
			files: map[string]string{"wlan0/phy80211/.keep": "", "wlan0/operstate": "down\n"},
			want:  false,
		},
		{
			name:  "wired only",
			files: map[string]string{"eth0/operstate": "up\n"},
			want:  false,
		},
		{
			name: "phy80211 marker",
			files: map[string]string{
				"eth0/operstate":      "up\n",
				"wlp2s0/phy80211/.keep": "",
				"wlp2s0/operstate":    "up",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				testutil.CreateTestFile(t, root, name, []byte(content))
			}

			if got := (Sysfs{Root: root}).IsWiFi(); got != tt.want {
				t.Errorf("IsWiFi() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSysfs_MissingRoot(t *testing.T) {
	if (Sysfs{Root: "/nonexistent/sys/class/net"}).IsWiFi() {
		t.Error("IsWiFi() should be false when sysfs is unreadable")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode    string
		want    Provider
		wantErr bool
	}{
		{"", Sysfs{}, false},
		{"auto", Sysfs{}, false},
		{"WiFi", Static(true), false},
		{"metered", Static(false), false},
		{"satellite", nil, true},
	}

	for _, tt := range tests {
		got, err := New(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("New(%q) = %#v, want %#v", tt.mode, got, tt.want)
		}
	}
}
