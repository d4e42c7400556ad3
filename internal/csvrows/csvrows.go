// Package csvrows splits CSV text into rows of trimmed string fields.
//
// The default tokenizer is deliberately naive: it splits on newlines and
// commas and never interprets quotes, which is what the inventory exports
// this tool consumes have always been read with. TokenizeStrict is available
// for files that carry quoted commas.
package csvrows

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParseFailure marks content that could not be read or tokenized at all.
var ErrParseFailure = errors.New("parse failure")

// ParseError wraps the cause of a whole-file parse failure.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrParseFailure) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }

// Tokenize splits text into rows. Whitespace-only lines are dropped; every
// other line is split on commas and each field is trimmed. The header row is
// kept; callers skip it.
func Tokenize(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rows = append(rows, fields)
	}
	return rows
}

// TokenizeStrict is the quote-aware variant of Tokenize. Quoted fields may
// contain commas and newlines; rows may have differing field counts.
func TokenizeStrict(text string) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Cause: fmt.Errorf("reading CSV: %w", err)}
	}

	var rows [][]string
	for _, rec := range records {
		blank := true
		for i, f := range rec {
			rec[i] = strings.TrimSpace(f)
			if rec[i] != "" {
				blank = false
			}
		}
		if blank && len(rec) == 1 {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// Read consumes r to completion and tokenizes it. A read that fails, or a
// strict tokenization that fails, is reported as a *ParseError. Invalid UTF-8
// sequences are replaced rather than rejected.
func Read(ctx context.Context, r io.Reader, strict bool) ([][]string, error) {
	text, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}
	if strict {
		return TokenizeStrict(text)
	}
	return Tokenize(text), nil
}

type readResult struct {
	data []byte
	err  error
}

func readAll(ctx context.Context, r io.Reader) (string, error) {
	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", &ParseError{Cause: fmt.Errorf("reading input: %w", res.err)}
		}
		return strings.ToValidUTF8(string(res.data), "�"), nil
	}
}
