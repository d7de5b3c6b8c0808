package models

import "strings"

// DisplayName — как называть пользователя Telegram в tennis.users.name.
func DisplayName(first, last, username string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		name = strings.TrimSpace(username)
	}
	return name
}
