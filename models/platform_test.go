package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Platform
		wantErr bool
	}{
		{name: "youtube", input: "youtube", want: PlatformYouTube},
		{name: "uppercase", input: "TikTok", want: PlatformTikTok},
		{name: "padded", input: "  instagram ", want: PlatformInstagram},
		{name: "unknown", input: "vimeo", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlatform(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Platform
		wantErr bool
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=abc123", want: PlatformYouTube},
		{name: "youtube short link", url: "https://youtu.be/abc123", want: PlatformYouTube},
		{name: "youtube music subdomain", url: "https://music.youtube.com/watch?v=abc", want: PlatformYouTube},
		{name: "tiktok video", url: "https://www.tiktok.com/@user/video/123", want: PlatformTikTok},
		{name: "tiktok vm subdomain", url: "https://vm.tiktok.com/ZMabc/", want: PlatformTikTok},
		{name: "instagram reel", url: "https://www.instagram.com/reel/abc/", want: PlatformInstagram},
		{name: "unknown host", url: "https://vimeo.com/12345", wantErr: true},
		{name: "no host", url: "not-a-url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlatformFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVideoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "strips www and trailing slash",
			url:  "https://www.tiktok.com/@user/video/123/",
			want: "https://tiktok.com/@user/video/123",
		},
		{
			name: "upgrades http and drops fragment",
			url:  "http://youtube.com/watch?v=abc#t=30",
			want: "https://youtube.com/watch?v=abc",
		},
		{
			name: "preserves query",
			url:  "https://YouTube.com/watch?v=abc123",
			want: "https://youtube.com/watch?v=abc123",
		},
		{
			name:    "rejects non-http scheme",
			url:     "ftp://youtube.com/watch?v=abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeVideoURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVideoURLStable(t *testing.T) {
	// Two spellings of the same link normalize to the same key
	a, err := NormalizeVideoURL("https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	b, err := NormalizeVideoURL("http://YouTube.com/watch?v=abc123#start")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
