package common

import (
	"strconv"
	"strings"
)

// QuoteArgs will add quotes around any arguments require it for the shell.
func QuoteArgs(args []string) []string {
	quotedArgs := []string{}
	for _, arg := range args {
		argQuoted := strconv.Quote(arg)
		argQuotedTrimmed := strings.Trim(argQuoted, "\"")
		if arg != argQuotedTrimmed || strings.Contains(arg, " ") || arg == "" {
			arg = argQuoted
		}
		quotedArgs = append(quotedArgs, arg)
	}
	return quotedArgs
}

// CommandLine renders argv the way it would be typed in a shell, for logs.
func CommandLine(args []string) string {
	return strings.Join(QuoteArgs(args), " ")
}
