package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedType(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=abc", "youtube", false},
		{"https://youtu.be/abc", "youtube", false},
		{"https://open.spotify.com/track/xyz", "spotify", false},
		{"https://soundcloud.com/artist/song", "soundcloud", false},
		{"http://youtube.com/watch?v=abc", "", true},
		{"https://youtube.com.evil.example/x", "", true},
		{"not a url", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := EmbedType(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmbeds(t *testing.T) {
	setupTest(t)
	u := createUser(t, "embedder")
	for i := 0; i < MaxEmbeds; i++ {
		e, err := AddEmbed(u.ID, "https://youtu.be/video")
		require.NoError(t, err)
		assert.Equal(t, i, e.Position)
	}
	_, err := AddEmbed(u.ID, "https://youtu.be/video")
	assert.ErrorIs(t, err, ErrLimitReached)

	embeds, err := EmbedsFor(u.ID)
	require.NoError(t, err)
	require.Len(t, embeds, MaxEmbeds)
	require.NoError(t, DeleteEmbed(u.ID, embeds[0].ID))
	assert.ErrorIs(t, DeleteEmbed(u.ID, embeds[0].ID), ErrNotFound)
}
