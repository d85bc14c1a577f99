package crawler

import "testing"

func TestNormalizeURLScenarios(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		auth authority
		want string
	}{
		{
			name: "protocol relative promoted to seed scheme",
			raw:  "//example.test/path",
			auth: authority{scheme: "https"},
			want: "https://example.test/path",
		},
		{
			name: "http upgraded to https when seed is https",
			raw:  "http://example.test/path",
			auth: authority{scheme: "https"},
			want: "https://example.test/path",
		},
		{
			name: "non default port injected from seed authority",
			raw:  "https://example.test/path",
			auth: authority{scheme: "https", port: "8443"},
			want: "https://example.test:8443/path",
		},
		{
			name: "existing port left alone",
			raw:  "https://example.test:9000/path",
			auth: authority{scheme: "https", port: "8443"},
			want: "https://example.test:9000/path",
		},
		{
			name: "trailing slash removed except at root",
			raw:  "https://example.test/dir/",
			auth: authority{scheme: "https"},
			want: "https://example.test/dir",
		},
		{
			name: "root slash preserved",
			raw:  "https://example.test/",
			auth: authority{scheme: "https"},
			want: "https://example.test/",
		},
		{
			name: "fragment stripped",
			raw:  "https://example.test/path#section",
			auth: authority{scheme: "https"},
			want: "https://example.test/path",
		},
		{
			name: "query parameters sorted alphabetically by default",
			raw:  "https://example.test/path?b=2&a=1",
			auth: authority{scheme: "https"},
			want: "https://example.test/path?a=1&b=2",
		},
		{
			name: "non http scheme rejected",
			raw:  "ftp://example.test/file",
			auth: authority{scheme: "https"},
			want: "",
		},
		{
			name: "unparseable url rejected",
			raw:  "https://%zz",
			auth: authority{scheme: "https"},
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeURL(tc.raw, tc.auth, false)
			if got != tc.want {
				t.Fatalf("normalizeURL(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeURLPreservesQueryOrderWhenRequested(t *testing.T) {
	t.Parallel()

	got := normalizeURL("https://example.test/path?b=2&a=1", authority{scheme: "https"}, true)
	want := "https://example.test/path?b=2&a=1"
	if got != want {
		t.Fatalf("normalizeURL with preserveQueryOrder = %q, want %q", got, want)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.test/", true},
		{"https://example.test/dir/", true},
		{"https://example.test/page.html", true},
		{"https://example.test/page.php", true},
		{"https://example.test/about", true},
		{"https://example.test/image.png", false},
		{"https://example.test/script.js", false},
		{"https://example.test/archive.tar.gz", false},
	}
	for _, tc := range cases {
		if got := looksLikeHTML(tc.url); got != tc.want {
			t.Errorf("looksLikeHTML(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}
