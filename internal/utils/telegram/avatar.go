package telegram

import "fmt"

// FallbackAvatarURL returns the public t.me userpic URL for a username, used
// when init data carries no photo. Empty username yields an empty string.
func FallbackAvatarURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/i/userpic/160/%s.jpg", username)
}
