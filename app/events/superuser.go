package events

import (
	"strings"
)

// SuperUser for moderators, allowed to see reports stats
type SuperUser []string

// IsSuper checks if username in su list
func (s SuperUser) IsSuper(userName string) bool {
	if strings.TrimSpace(userName) == "" {
		return false
	}
	for _, super := range s {
		if strings.EqualFold(userName, super) || strings.EqualFold("/"+userName, super) || strings.EqualFold("@"+userName, super) {
			return true
		}
	}
	return false
}
