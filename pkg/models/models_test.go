package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pinscraper/pkg/errors"
)

func validRequest() Request {
	return Request{Query: "cats", TargetCount: 10, Destination: "out", MinWidth: 200, MinHeight: 200}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Request)
		wantErr string
	}{
		{name: "valid", modify: func(r *Request) {}},
		{name: "empty query", modify: func(r *Request) { r.Query = "  " }, wantErr: "Search query is required"},
		{name: "zero count", modify: func(r *Request) { r.TargetCount = 0 }, wantErr: "Number of images must be between 1 and 100"},
		{name: "count too large", modify: func(r *Request) { r.TargetCount = 101 }, wantErr: "Number of images must be between 1 and 100"},
		{name: "no destination", modify: func(r *Request) { r.Destination = "" }, wantErr: "Folder name is required"},
		{name: "bad dimensions", modify: func(r *Request) { r.MinHeight = 0 }, wantErr: "Image quality must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.modify(&r)
			err := r.Validate(100)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsUserError(err))
			assert.Equal(t, tt.wantErr, errors.Reason(err))
		})
	}
}

func TestParseQuality(t *testing.T) {
	w, h, err := ParseQuality("800x600")
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	w, h, err = ParseQuality(" 400X400 ")
	require.NoError(t, err)
	assert.Equal(t, 400, w)
	assert.Equal(t, 400, h)

	for _, bad := range []string{"", "400", "axb", "0x100", "-1x5", "1x2x3"} {
		_, _, err := ParseQuality(bad)
		assert.Error(t, err, bad)
	}
}

func TestQualityPresets(t *testing.T) {
	require.Len(t, QualityPresets, 3)
	assert.Equal(t, "200x200", QualityPresets[0].String())
	assert.Equal(t, "400x400", QualityPresets[1].String())
	assert.Equal(t, "800x600", QualityPresets[2].String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "mountain_cabins_1.jpg", FileName("mountain cabins", 1, "jpg"))
	assert.Equal(t, "cats_12.webp", FileName("cats", 12, "webp"))
	assert.Equal(t, "a_b_c_3.png", FileName("a/b\\c", 3, "png"))
}

func TestSearchURL(t *testing.T) {
	template := "https://www.pinterest.com/search/pins/?q=%s"
	assert.Equal(t, "https://www.pinterest.com/search/pins/?q=mountain%20cabins", SearchURL(template, "mountain cabins"))
	assert.Equal(t, "https://www.pinterest.com/search/pins/?q=cats%26dogs", SearchURL(template, "cats&dogs"))
}
