// Package youtube extracts video ids from the common YouTube URL shapes.
package youtube

import "regexp"

// videoIDPattern matches the URL forms users actually paste:
//
//	https://www.youtube.com/watch?v=dQw4w9WgXcQ
//	https://www.youtube.com/embed/dQw4w9WgXcQ
//	https://www.youtube.com/v/dQw4w9WgXcQ
//	https://youtu.be/dQw4w9WgXcQ
//
// The capture group is the 11-character video id. Anything after the id
// (extra query params, fragments) is ignored.
var videoIDPattern = regexp.MustCompile(
	`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`,
)

// ExtractVideoID returns the 11-character video id embedded in url, or
// ("", false) when the url is not a recognisable YouTube video link.
func ExtractVideoID(url string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
