package scope

import "errors"

var (
	// ErrNoResults is returned when the company search matched nothing
	ErrNoResults = errors.New("search did not return any results")
	// ErrMalformedSearchRow is returned when a search result row lacks its link or description cell
	ErrMalformedSearchRow = errors.New("malformed search result row")
	// ErrSearchTableMissing is returned when the search results have no table body
	ErrSearchTableMissing = errors.New("search result table not found")
	// ErrNoAnswer is returned when input ends before a scope question is answered
	ErrNoAnswer = errors.New("no answer to scope question")
)
