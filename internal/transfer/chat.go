package transfer

import "strings"

// IsBye reports whether a console line ends the chat loop.
func IsBye(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ByeSentinel)
}
