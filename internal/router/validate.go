package router

import "strings"

// validUsername requires 3-63 chars of {alnum, '.', '_', '-'}.
func validUsername(username string) bool {
	if len(username) < 3 || len(username) > 63 {
		return false
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// validEmail is a deliberately loose syntax check: contains '@' and a
// '.' somewhere after it.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return false
	}
	return strings.IndexByte(email[at+1:], '.') >= 0
}

// validPassword requires at least 6 characters.
func validPassword(password string) bool {
	return len(password) >= 6
}

// safePathSegment rejects ".." and backslashes before a request path
// reaches the filesystem.
func safePathSegment(p string) bool {
	if strings.Contains(p, "..") || strings.ContainsRune(p, '\\') {
		return false
	}
	return true
}
