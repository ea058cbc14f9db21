package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/letmevibethatforyou/typeahead"
	"github.com/letmevibethatforyou/typeahead/directory"
	"github.com/letmevibethatforyou/typeahead/memory"
)

const clearCommand = "/clear"

type session = typeahead.Session[directory.User, directory.Scope]

// stateLine is the JSON form of a published state.
type stateLine struct {
	Term       string           `json:"term"`
	Results    []directory.User `json:"results"`
	InProgress bool             `json:"in_progress"`
	Empty      bool             `json:"empty"`
	Error      string           `json:"error,omitempty"`
}

func newStateLine(st typeahead.State[directory.User]) stateLine {
	line := stateLine{
		Term:       st.SearchTerm,
		Results:    st.Results,
		InProgress: st.IsSearchInProgress,
		Empty:      st.IsEmptySearchTerm,
	}
	if line.Results == nil {
		line.Results = []directory.User{}
	}
	if st.Err != nil {
		line.Error = st.Err.Error()
	}
	return line
}

// run feeds every line of in to the session and writes published states
// to out until in is exhausted and the last lookup has settled. It closes
// the session before returning.
func run(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	defer s.Close()

	states, unsubscribe := s.Subscribe()
	defer unsubscribe()

	printed := make(chan error, 1)
	go func() {
		enc := json.NewEncoder(out)
		var werr error
		for st := range states {
			if werr != nil {
				continue
			}
			werr = enc.Encode(newStateLine(st))
		}
		printed <- werr
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == clearCommand {
			s.ClearSearch()
			continue
		}
		s.SetSearchTerm(line)
	}
	if err := scanner.Err(); err != nil {
		s.Close()
		<-printed
		return fmt.Errorf("failed to read input: %w", err)
	}

	waitIdle(ctx, s)
	s.Close()

	if err := <-printed; err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// waitIdle blocks until no lookup is pending or ctx is done.
func waitIdle(ctx context.Context, s *session) {
	states, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok || !st.IsSearchInProgress {
				return
			}
		}
	}
}

// loadUsers builds a memory index from JSON lines of directory users.
// Blank lines are skipped.
func loadUsers(r io.Reader) (*memory.Index, error) {
	index := memory.New(memory.WithSearchableFields(directory.SearchableFields...))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var u directory.User
		if err := json.Unmarshal([]byte(line), &u); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if u.ID == "" {
			return nil, fmt.Errorf("line %d: user has no id", lineNo)
		}
		index.Add(memory.Document{ID: u.ID, Fields: u.Fields()})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return index, nil
}
