package services

import "strings"

// AdminList decides who may open the admin panel. The same check drives the
// Admin menu entry.
type AdminList struct {
	emails map[string]bool
}

func NewAdminList(emails []string) *AdminList {
	l := &AdminList{emails: make(map[string]bool, len(emails))}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			l.emails[e] = true
		}
	}
	return l
}

func (l *AdminList) IsAdmin(email string) bool {
	if l == nil {
		return false
	}
	return l.emails[strings.ToLower(strings.TrimSpace(email))]
}
