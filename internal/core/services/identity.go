package services

import (
	"strings"

	"github.com/google/uuid"
)

// queryNamespace scopes name-based query identities.
var queryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("noticealert:standing-query"))

// QueryIdentity derives the standing-query key for a user's cleaned
// question. It is a pure function: the same pair always yields the same
// identity, and the NUL separator keeps ("ab", "c") apart from ("a", "bc").
func QueryIdentity(user, cleanedQuery string) string {
	return uuid.NewSHA1(queryNamespace, []byte(user+"\x00"+strings.TrimSpace(cleanedQuery))).String()
}
