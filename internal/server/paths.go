package server

import "strings"

// parseRoomPath splits /api/rooms/{id}[/{action}[/{subaction}]] into the
// room id and a slash-joined action.
func parseRoomPath(path string) (string, string, bool) {
	const prefix = "/api/rooms/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	roomID := parts[0]
	switch len(parts) {
	case 1:
		return roomID, "", true
	case 2:
		return roomID, parts[1], true
	case 3:
		return roomID, parts[1] + "/" + parts[2], true
	}
	return "", "", false
}

func parseWebsocketPath(path string) (string, bool) {
	const prefix = "/ws/rooms/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
