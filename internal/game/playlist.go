package game

import "regexp"

// Accepts share links (https://open.spotify.com/playlist/<id>?si=...) and
// bare URIs (spotify:playlist:<id>).
var playlistIDRe = regexp.MustCompile(`playlist[/:]([a-zA-Z0-9]+)`)

// ExtractPlaylistID pulls the playlist id out of a pasted link or URI.
func ExtractPlaylistID(link string) (string, bool) {
	m := playlistIDRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}
