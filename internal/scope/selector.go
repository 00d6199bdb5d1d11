package scope

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

var (
	yesAnswers = []string{"yes", "y", ""}
	noAnswers  = []string{"n", "no"}
)

// Selector asks, once per distinct description, whether a search result
// belongs to the scope.
type Selector struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
	decisions map[string]bool
}

// NewSelector prompts on out and reads answers from in. With assumeYes
// every candidate is accepted without prompting.
func NewSelector(in io.Reader, out io.Writer, assumeYes bool) *Selector {
	return &Selector{
		in:        bufio.NewReader(in),
		out:       out,
		assumeYes: assumeYes,
		decisions: make(map[string]bool),
	}
}

// Select returns the crawl seeds for the accepted candidates in row order
func (s *Selector) Select(baseURL string, candidates []Candidate) ([]string, error) {
	base := strings.TrimRight(baseURL, "/")

	var seeds []string
	for _, c := range candidates {
		inScope, err := s.decide(c.Description)
		if err != nil {
			return seeds, err
		}
		if inScope {
			seeds = append(seeds, base+c.Href)
		}
	}
	return seeds, nil
}

func (s *Selector) decide(description string) (bool, error) {
	if s.assumeYes {
		return true, nil
	}
	if d, ok := s.decisions[description]; ok {
		return d, nil
	}

	d, err := s.ask(description)
	if err != nil {
		return false, err
	}
	s.decisions[description] = d
	return d, nil
}

func (s *Selector) ask(description string) (bool, error) {
	choices := strings.Join(append(append([]string{}, yesAnswers...), noAnswers...), ", ")
	for {
		fmt.Fprintf(s.out, "Is %s part of your scope? [y/n, default yes]: ", description)

		line, err := s.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return false, fmt.Errorf("%w: %s", ErrNoAnswer, description)
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		if slices.Contains(yesAnswers, answer) {
			return true, nil
		}
		if slices.Contains(noAnswers, answer) {
			return false, nil
		}
		fmt.Fprintf(s.out, "Error: You submitted %s, but must be one of %s.\n", strings.TrimRight(line, "\r\n"), choices)
		if err != nil {
			return false, fmt.Errorf("%w: %s", ErrNoAnswer, description)
		}
	}
}
