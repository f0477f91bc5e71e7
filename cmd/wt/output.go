package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/worktrack/worktrack/internal/result"
)

var (
	successMark = color.New(color.FgGreen).SprintFunc()
	warnMark    = color.New(color.FgYellow).SprintFunc()
	errorMark   = color.New(color.FgRed).SprintFunc()
	dimText     = color.New(color.Faint).SprintFunc()
	boldText    = color.New(color.Bold).SprintFunc()
)

// FatalError prints a formatted error and exits non-zero.
func FatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorMark("Error:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}

// exit codes per outcome kind; success kinds exit zero.
func exitCode(k result.Kind) int {
	switch k {
	case result.KindOK, result.KindCreated:
		return 0
	case result.KindBadRequest:
		return 2
	case result.KindUnauthorized:
		return 3
	case result.KindForbidden:
		return 4
	case result.KindNotFound:
		return 5
	}
	return 1
}

// unwrap exits with the mapped code when res is not a success,
// otherwise returns the payload.
func unwrap[T any](res result.Result[T]) T {
	if res.IsSuccess() {
		return res.Data
	}
	if res.Kind == result.KindFailure && res.Err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorMark("Error:"), res.Err)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorMark(res.Kind.String()+":"), res.Reason)
	}
	os.Exit(exitCode(res.Kind))
	panic("unreachable")
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		FatalError("encoding JSON: %v", err)
	}
}

// emit prints v as JSON when --json is set, otherwise calls human.
func emit(v any, human func()) {
	if cfg.JSON {
		printJSON(v)
		return
	}
	human()
}

// actorID returns the configured actor or fails the command.
func actorID() string {
	if cfg.ActorID == "" {
		FatalError("no actor configured (use --actor or WT_ACTOR)")
	}
	return cfg.ActorID
}
