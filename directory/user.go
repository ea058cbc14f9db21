// Package directory provides user-search callbacks for typeahead sessions:
// pickers that find users to add to a group, and member lists that search
// within one.
package directory

import (
	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/letmevibethatforyou/typeahead/lookup"
)

// Field names used in directory documents.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldGroups   = "groups"
	FieldDisabled = "disabled"
)

// SearchableFields are the fields matched against the typed term.
var SearchableFields = []string{FieldName, FieldEmail}

// User is a directory entry.
type User struct {
	ID       string   `mapstructure:"id" json:"id"`
	Name     string   `mapstructure:"name" json:"name"`
	Email    string   `mapstructure:"email" json:"email"`
	Groups   []string `mapstructure:"groups" json:"groups,omitempty"`
	Disabled bool     `mapstructure:"disabled" json:"disabled,omitempty"`
}

// Fields returns the document form of u.
func (u User) Fields() map[string]any {
	groups := make([]any, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, g)
	}
	return map[string]any{
		FieldID:       u.ID,
		FieldName:     u.Name,
		FieldEmail:    u.Email,
		FieldGroups:   groups,
		FieldDisabled: u.Disabled,
	}
}

// DecodeHit converts a search hit into a User. The hit ID wins over any
// id attribute in the document.
func DecodeHit(hit lookup.Hit) (User, error) {
	var u User
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &u,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return User{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(hit.Fields); err != nil {
		return User{}, errors.Wrapf(err, "failed to decode user %s", hit.ID)
	}
	if hit.ID != "" {
		u.ID = hit.ID
	}
	if u.ID == "" {
		return User{}, errors.New("user hit has no id")
	}
	return u, nil
}
