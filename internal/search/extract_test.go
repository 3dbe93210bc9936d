package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHandle_ProfileURLs(t *testing.T) {
	cases := map[string]string{
		"https://www.instagram.com/fit.coach_mx":          "fit.coach_mx",
		"https://instagram.com/FitCoach/":                 "fitcoach",
		"https://www.instagram.com/@entrenadora":          "entrenadora",
		"https://www.instagram.com/studio.uno/?hl=es":     "studio.uno",
		"http://m.instagram.com/gym_boutique/reels":       "gym_boutique",
		"https://www.instagram.com/coach99/p/Cxyz/":       "coach99",
	}
	for rawURL, want := range cases {
		assert.Equal(t, want, ExtractHandle(rawURL), "url: %s", rawURL)
	}
}

func TestExtractHandle_BlockedPaths(t *testing.T) {
	blocked := []string{
		"https://www.instagram.com/p/Cxyz123/",
		"https://www.instagram.com/post/Cxyz123/",
		"https://www.instagram.com/reel/Cxyz123/",
		"https://www.instagram.com/reels/Cxyz123/",
		"https://www.instagram.com/tv/Cxyz123/",
		"https://www.instagram.com/explore/tags/fitness/",
		"https://www.instagram.com/stories/someone/123/",
		"https://www.instagram.com/accounts/login/",
		"https://www.instagram.com/developer/",
		"https://www.instagram.com/about/us/",
		"https://www.instagram.com/directory/profiles/",
		"https://www.instagram.com/tags/gym/",
	}
	for _, rawURL := range blocked {
		assert.Empty(t, ExtractHandle(rawURL), "url: %s", rawURL)
	}
}

func TestExtractHandle_NonInstagramHosts(t *testing.T) {
	assert.Empty(t, ExtractHandle("https://www.facebook.com/fitcoach"))
	assert.Empty(t, ExtractHandle("https://instagram.com.evil.example/fitcoach"))
	assert.Empty(t, ExtractHandle("https://fakeinstagram.com/fitcoach"))
	assert.Empty(t, ExtractHandle("https://example.com/instagram.com/fitcoach"))
}

func TestExtractHandle_SubdomainsAllowed(t *testing.T) {
	assert.Equal(t, "fitcoach", ExtractHandle("https://m.instagram.com/fitcoach"))
	assert.Equal(t, "fitcoach", ExtractHandle("https://www.instagram.com/fitcoach"))
}

func TestExtractHandle_InvalidSyntax(t *testing.T) {
	assert.Empty(t, ExtractHandle("https://www.instagram.com/has%20space/"))
	assert.Empty(t, ExtractHandle("https://www.instagram.com/"))
	assert.Empty(t, ExtractHandle("https://www.instagram.com/horizontal-dash/"))
}

func TestExtractHandle_TooLong(t *testing.T) {
	long := "a234567890123456789012345678901" // 31 chars
	assert.Empty(t, ExtractHandle("https://www.instagram.com/"+long))
	ok := long[:30]
	assert.Equal(t, ok, ExtractHandle("https://www.instagram.com/"+ok))
}

func TestExtractHandle_MalformedURL(t *testing.T) {
	assert.Empty(t, ExtractHandle("http://%zz"))
	assert.Empty(t, ExtractHandle(""))
}
