package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/segmentio/ksuid"
)

var (
	firstNames = []string{
		"Ada", "Alan", "Grace", "Linus", "Barbara", "Ken", "Margaret", "Dennis",
		"Frances", "Edsger", "Radia", "Donald", "Katherine", "John", "Hedy", "Tim",
	}
	lastNames = []string{
		"Lovelace", "Turing", "Hopper", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie",
		"Allen", "Dijkstra", "Perlman", "Knuth", "Johnson", "Backus", "Lamarr", "Berners-Lee",
	}
	groups = []string{
		"eng", "design", "sales", "support", "finance", "ops",
	}
)

// generateUser returns a random user with a ksuid ID. r is the source of
// randomness so output can be reproduced with a seed.
func generateUser(r *rand.Rand, domain string) directory.User {
	first := firstNames[r.IntN(len(firstNames))]
	last := lastNames[r.IntN(len(lastNames))]

	n := r.IntN(3)
	picked := make(map[string]bool, n)
	var userGroups []string
	for len(userGroups) < n {
		g := groups[r.IntN(len(groups))]
		if !picked[g] {
			picked[g] = true
			userGroups = append(userGroups, g)
		}
	}

	id := ksuid.New().String()
	local := strings.ToLower(fmt.Sprintf("%s.%s.%s", first, last, id[len(id)-4:]))

	return directory.User{
		ID:       id,
		Name:     first + " " + last,
		Email:    local + "@" + domain,
		Groups:   userGroups,
		Disabled: r.IntN(20) == 0,
	}
}
