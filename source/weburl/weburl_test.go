package weburl

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "https URL",
			url:     "https://emmo-repo.github.io/latest-stable/emmo.ttl",
			wantErr: false,
		},
		{
			name:    "http URL",
			url:     "http://127.0.0.1:8080/onto.ttl",
			wantErr: false,
		},
		{
			name:    "file URL rejected",
			url:     "file:///tmp/onto.ttl",
			wantErr: true,
		},
		{
			name:    "ftp URL rejected",
			url:     "ftp://example.org/onto.ttl",
			wantErr: true,
		},
		{
			name:    "missing host rejected",
			url:     "https:///onto.ttl",
			wantErr: true,
		},
		{
			name:    "plain path rejected",
			url:     "onto.ttl",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if IsURL(tt.url) == tt.wantErr {
				t.Errorf("IsURL(%q) = %v", tt.url, !tt.wantErr)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url    string
		ext    string
		prefix string
		suffix string
	}{
		{
			url:    "https://emmo-repo.github.io/latest-stable/emmo.ttl",
			ext:    ".owl",
			prefix: "emmo-repo-github-io-latest-stable-emmo-",
			suffix: ".ttl",
		},
		{
			url:    "https://w3id.org/emmo/",
			ext:    ".ttl",
			prefix: "w3id-org-emmo-",
			suffix: ".ttl",
		},
		{
			url:    "https://Example.org/A_B/onto.OWL?version=2",
			ext:    "",
			prefix: "example-org-a-b-onto-",
			suffix: ".owl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := FileName(tt.url, tt.ext)
			if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("FileName(%q) = %q, want %q...%q", tt.url, got, tt.prefix, tt.suffix)
			}
			if len(got) != len(tt.prefix)+8+len(tt.suffix) {
				t.Errorf("FileName(%q) = %q, want an 8 digit hash", tt.url, got)
			}
		})
	}
}

func TestFileNameDistinct(t *testing.T) {
	a := FileName("https://example.org/a/b-c.ttl", "")
	b := FileName("https://example.org/a-b/c.ttl", "")
	if a == b {
		t.Errorf("expected distinct names, both %q", a)
	}
	if FileName("https://example.org/a/b-c.ttl", "") != a {
		t.Error("FileName is not deterministic")
	}
}

func TestFileNameTruncated(t *testing.T) {
	got := FileName("https://example.org/"+strings.Repeat("segment/", 20)+"onto.ttl", "")
	if len(got) > 80+1+8+len(".ttl") {
		t.Errorf("FileName too long: %d characters", len(got))
	}
}

func TestDirAndJoin(t *testing.T) {
	dir, err := Dir("https://raw.githubusercontent.com/BIG-MAP/BattINFO/master/battinfo.ttl?x=1#frag")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://raw.githubusercontent.com/BIG-MAP/BattINFO/master/"; dir != want {
		t.Errorf("Dir = %q, want %q", dir, want)
	}

	got, err := Join(dir, "catalog-v001.xml")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://raw.githubusercontent.com/BIG-MAP/BattINFO/master/catalog-v001.xml"; got != want {
		t.Errorf("Join = %q, want %q", got, want)
	}

	dir, err = Dir("https://example.org")
	if err != nil {
		t.Fatal(err)
	}
	if dir != "https://example.org/" {
		t.Errorf("Dir = %q", dir)
	}
}
