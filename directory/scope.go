package directory

import (
	"sort"
	"strconv"
	"strings"

	"github.com/letmevibethatforyou/typeahead/lookup"
)

// Membership selects users relative to Scope.GroupID.
type Membership int

const (
	// AnyUser ignores group membership.
	AnyUser Membership = iota
	// Members keeps only users in the group, for member lists.
	Members
	// NonMembers keeps only users outside the group, for add-member pickers.
	NonMembers
)

// String implements fmt.Stringer.
func (m Membership) String() string {
	switch m {
	case Members:
		return "members"
	case NonMembers:
		return "non-members"
	default:
		return "any"
	}
}

// ParseMembership parses the String form. Unknown values yield AnyUser and false.
func ParseMembership(s string) (Membership, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AnyUser, true
	case "members":
		return Members, true
	case "non-members", "nonmembers":
		return NonMembers, true
	default:
		return AnyUser, false
	}
}

// Scope is the metadata of a directory search session.
type Scope struct {
	GroupID    string
	Membership Membership

	// ExcludeIDs are never returned, e.g. the current user.
	ExcludeIDs []string

	// IncludeDisabled also returns deactivated accounts.
	IncludeDisabled bool
}

// Filters converts the scope into lookup filters.
func (s Scope) Filters() []lookup.SearchOption {
	var opts []lookup.SearchOption

	if s.GroupID != "" {
		switch s.Membership {
		case Members:
			opts = append(opts, lookup.Eq(FieldGroups, s.GroupID))
		case NonMembers:
			opts = append(opts, lookup.Not(lookup.Eq(FieldGroups, s.GroupID)))
		}
	}

	if len(s.ExcludeIDs) > 0 {
		ids := make([]any, 0, len(s.ExcludeIDs))
		for _, id := range s.ExcludeIDs {
			ids = append(ids, id)
		}
		opts = append(opts, lookup.Not(lookup.In(FieldID, ids...)))
	}

	if !s.IncludeDisabled {
		opts = append(opts, lookup.Ne(FieldDisabled, true))
	}

	return opts
}

// Key identifies the scope for caching and provider sharing.
func (s Scope) Key() string {
	excluded := append([]string(nil), s.ExcludeIDs...)
	sort.Strings(excluded)

	var b strings.Builder
	b.WriteString(s.GroupID)
	b.WriteByte('|')
	b.WriteString(s.Membership.String())
	b.WriteByte('|')
	b.WriteString(strings.Join(excluded, ","))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(s.IncludeDisabled))
	return b.String()
}
