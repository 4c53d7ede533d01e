package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsContentImage(t *testing.T) {
	f := New()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://i.pinimg.com/236x/ab/cd/ef.jpg", true},
		{"http://i.pinimg.com/originals/ab.png", true},
		{"", false},
		{"//i.pinimg.com/relative.jpg", false},
		{"ftp://i.pinimg.com/a.jpg", false},
		{"data:image/gif;base64,R0lGOD", false},
		{"https://s.pinimg.com/images/PLACEHOLDER.png", false},
		{"https://s.pinimg.com/1x1.gif", false},
		{"https://s.pinimg.com/Loading-spinner.gif", false},
		{"https://i.pinimg.com/75x75_RS/avatar.jpg", false},
		{"https://i.pinimg.com/user/Profile_pic.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsContentImage(tt.url))
		})
	}
}

func TestAcceptDeduplicates(t *testing.T) {
	f := New()
	url := "https://i.pinimg.com/736x/a.jpg"

	assert.True(t, f.Accept(url))
	assert.False(t, f.Accept(url))
	assert.True(t, f.Accept("https://i.pinimg.com/736x/b.jpg"))
	assert.Equal(t, 2, f.Seen())
}

func TestAcceptDoesNotRecordRejected(t *testing.T) {
	f := New()
	assert.False(t, f.Accept("https://i.pinimg.com/avatar.jpg"))
	assert.Equal(t, 0, f.Seen())
}

func TestCustomPatterns(t *testing.T) {
	f := New("Sprite", " ")
	assert.False(t, f.IsContentImage("https://cdn.example.com/sprite-sheet.png"))
	assert.True(t, f.IsContentImage("https://cdn.example.com/avatar.png"))
}

func TestSeparateFiltersDoNotShareSeenSet(t *testing.T) {
	url := "https://i.pinimg.com/736x/a.jpg"
	assert.True(t, New().Accept(url))
	assert.True(t, New().Accept(url))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("https://i.pinimg.com/a.PNG"))
	assert.Equal(t, "webp", Extension("https://i.pinimg.com/a.webp?x=1"))
	assert.Equal(t, "jpg", Extension("https://i.pinimg.com/a.jpeg"))
	assert.Equal(t, "jpg", Extension("https://i.pinimg.com/a"))
}
