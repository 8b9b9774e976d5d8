package utils

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// --- 1. Error Reporting ---

// ShowError prints the formatted error box used by every command.
func ShowError(w io.Writer, context string, err error) {
	fmt.Fprintf(w, "\n---------------------------------------------------------\n")
	fmt.Fprintf(w, "🚨 FARGO ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(w, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(w, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for fatal command errors.
func Die(context string, err error) {
	ShowError(os.Stderr, context, err)
	os.Exit(1)
}

// --- 2. Flag Parsing ---

// ParseIDs reads client ids from flag values. Each value may hold several
// comma separated ids; zero padding ("026") is accepted.
func ParseIDs(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			id, err := strconv.Atoi(tok)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid client id %q", tok)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SplitList flattens comma separated flag values, dropping empty items.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	}
	return out
}
